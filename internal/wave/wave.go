package wave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrEmptyRange is returned when a slice selects no frames.
var ErrEmptyRange = errors.New("empty audio range")

// Waveform is interleaved little-endian PCM plus its format.
type Waveform struct {
	Format
	Data []byte
}

// Frames returns the number of interleaved frames.
func (w *Waveform) Frames() int {
	fs := w.FrameSize()
	if fs == 0 {
		return 0
	}
	return len(w.Data) / fs
}

// Duration returns the playback length.
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(w.Frames()) / float64(w.SampleRate) * float64(time.Second))
}

// Probe reads only the header of a WAVE stream.
func Probe(r io.ReadSeeker) (Format, error) {
	d := wav.NewDecoder(r)
	if err := d.FwdToPCM(); err != nil {
		return Format{}, fmt.Errorf("read wav header: %w", err)
	}
	return formatOf(d)
}

// Decode reads a whole WAVE stream.
func Decode(r io.ReadSeeker) (*Waveform, error) {
	d := wav.NewDecoder(r)
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	f, err := formatOf(d)
	if err != nil {
		return nil, err
	}
	if d.PCMSize < 0 {
		return nil, fmt.Errorf("invalid data chunk size %d", d.PCMSize)
	}
	data := make([]byte, pcmBytes(d.PCMSize, f.FrameSize()))
	if _, err := io.ReadFull(d.PCMChunk, data); err != nil {
		return nil, fmt.Errorf("read pcm data: %w", err)
	}
	if len(data)%f.FrameSize() != 0 {
		return nil, fmt.Errorf("pcm data of %d bytes is not a whole number of %d-byte frames", len(data), f.FrameSize())
	}
	return &Waveform{Format: f, Data: data}, nil
}

// DecodeBytes decodes an in-memory WAVE container.
func DecodeBytes(b []byte) (*Waveform, error) {
	return Decode(bytes.NewReader(b))
}

// pcmBytes undoes the word alignment the decoder adds to odd data chunk
// sizes. The pad byte is optional on read.
func pcmBytes(size, frameSize int) int {
	if frameSize > 0 && size%2 == 0 && size%frameSize != 0 && (size-1)%frameSize == 0 {
		return size - 1
	}
	return size
}

func formatOf(d *wav.Decoder) (Format, error) {
	if d.NumChans < 1 {
		return Format{}, fmt.Errorf("invalid channel count %d", d.NumChans)
	}
	if d.SampleRate == 0 {
		return Format{}, errors.New("invalid sample rate 0")
	}
	st, err := subtypeOf(d.WavAudioFormat, d.BitDepth)
	if err != nil {
		return Format{}, err
	}
	return Format{SampleRate: int(d.SampleRate), Subtype: st, Channels: int(d.NumChans)}, nil
}

// Encode writes wf as a RIFF/WAVE container with its original parameters.
func Encode(w io.WriteSeeker, wf *Waveform) error {
	width, err := SampleWidth(wf.Subtype)
	if err != nil {
		return err
	}
	if wf.Channels < 1 {
		return fmt.Errorf("invalid channel count %d", wf.Channels)
	}
	enc := wav.NewEncoder(w, wf.SampleRate, width*8, wf.Channels, wf.Subtype.formatTag())

	if wf.Subtype == Double {
		// The int buffer path tops out at 32 bits; doubles go frame by frame.
		empty := &audio.IntBuffer{Format: wf.audioFormat(), SourceBitDepth: 64}
		if err := enc.Write(empty); err != nil {
			return fmt.Errorf("write wav header: %w", err)
		}
		fs := wf.FrameSize()
		for off := 0; off+fs <= len(wf.Data); off += fs {
			if err := enc.WriteFrame(wf.Data[off : off+fs]); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
		return enc.Close()
	}

	buf, err := wf.IntBuffer()
	if err != nil {
		return err
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	if len(wf.Data)%2 == 1 {
		// RIFF chunks are word aligned; the data chunk size excludes the pad.
		if err := enc.AddLE(uint8(0)); err != nil {
			return fmt.Errorf("write pad byte: %w", err)
		}
	}
	return enc.Close()
}

func (w *Waveform) audioFormat() *audio.Format {
	return &audio.Format{NumChannels: w.Channels, SampleRate: w.SampleRate}
}

// IntBuffer unpacks samples into a go-audio buffer. FLOAT samples keep their
// IEEE bit pattern so a 32-bit encoder reproduces them exactly.
func (w *Waveform) IntBuffer() (*audio.IntBuffer, error) {
	width, err := SampleWidth(w.Subtype)
	if err != nil {
		return nil, err
	}
	if w.Subtype == Double {
		return nil, fmt.Errorf("%w: %s has no integer representation", ErrUnsupportedSubtype, w.Subtype)
	}
	n := len(w.Data) / width
	data := make([]int, n)
	for i := 0; i < n; i++ {
		b := w.Data[i*width:]
		switch w.Subtype {
		case PCM16:
			data[i] = int(int16(binary.LittleEndian.Uint16(b)))
		case PCM24:
			data[i] = int(int24(b))
		case PCM32, Float:
			data[i] = int(int32(binary.LittleEndian.Uint32(b)))
		}
	}
	return &audio.IntBuffer{Format: w.audioFormat(), Data: data, SourceBitDepth: width * 8}, nil
}

// Float32Mono averages all channels into normalized [-1, 1] samples.
func (w *Waveform) Float32Mono() ([]float32, error) {
	width, err := SampleWidth(w.Subtype)
	if err != nil {
		return nil, err
	}
	frames := w.Frames()
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < w.Channels; c++ {
			sum += w.sample((i*w.Channels + c) * width)
		}
		out[i] = float32(sum / float64(w.Channels))
	}
	return out, nil
}

// FromFloat32Mono packs normalized samples as mono PCM_16, clipping to range.
func FromFloat32Mono(samples []float32, rate int) *Waveform {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(float64(s) * 32767)
		v = math.Max(-32768, math.Min(32767, v))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return &Waveform{Format: Format{SampleRate: rate, Subtype: PCM16, Channels: 1}, Data: data}
}

func (w *Waveform) sample(off int) float64 {
	b := w.Data[off:]
	switch w.Subtype {
	case PCM16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
	case PCM24:
		return float64(int24(b)) / 8388608
	case PCM32:
		return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
	case Float:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Double:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

func int24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v |= ^0xFFFFFF
	}
	return v
}

// Slice copies the frames in [start, end). The end is clamped to the stream.
func (w *Waveform) Slice(start, end time.Duration) (*Waveform, error) {
	fs := w.FrameSize()
	if fs == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSubtype, w.Subtype)
	}
	total := w.Frames()
	from := frameAt(start, w.SampleRate)
	to := frameAt(end, w.SampleRate)
	if to > total {
		to = total
	}
	if from < 0 || from >= to {
		return nil, fmt.Errorf("%w: [%s, %s) of %s", ErrEmptyRange, start, end, w.Duration())
	}
	data := make([]byte, (to-from)*fs)
	copy(data, w.Data[from*fs:to*fs])
	return &Waveform{Format: w.Format, Data: data}, nil
}

func frameAt(d time.Duration, rate int) int {
	return int(math.Round(d.Seconds() * float64(rate)))
}
