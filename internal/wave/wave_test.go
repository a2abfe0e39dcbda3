package wave

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func encodeToBytes(t *testing.T, wf *Waveform) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Encode(f, wf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func ramp(st Subtype, channels, frames int) *Waveform {
	width, _ := SampleWidth(st)
	data := make([]byte, frames*channels*width)
	for i := 0; i < frames*channels; i++ {
		b := data[i*width:]
		v := float64(i%100)/100 - 0.5
		switch st {
		case PCM16:
			binary.LittleEndian.PutUint16(b, uint16(int16(v*30000)))
		case PCM24:
			x := int32(v * 8000000)
			b[0], b[1], b[2] = byte(x), byte(x>>8), byte(x>>16)
		case PCM32:
			binary.LittleEndian.PutUint32(b, uint32(int32(v*2e9)))
		case Float:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		case Double:
			binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		}
	}
	return &Waveform{Format: Format{SampleRate: 22050, Subtype: st, Channels: channels}, Data: data}
}

func TestRoundTripPreservesFormat(t *testing.T) {
	cases := []struct {
		st       Subtype
		channels int
	}{
		{PCM16, 1},
		{PCM16, 2},
		{PCM24, 1},
		{PCM32, 2},
		{Float, 1},
		{Double, 2},
	}
	for _, c := range cases {
		src := ramp(c.st, c.channels, 441)
		got, err := DecodeBytes(encodeToBytes(t, src))
		if err != nil {
			t.Fatalf("%s x%d: decode: %v", c.st, c.channels, err)
		}
		if got.Format != src.Format {
			t.Fatalf("%s x%d: format %v, want %v", c.st, c.channels, got.Format, src.Format)
		}
		if got.Frames() != src.Frames() || got.Duration() != src.Duration() {
			t.Fatalf("%s x%d: frames %d want %d", c.st, c.channels, got.Frames(), src.Frames())
		}
		if string(got.Data) != string(src.Data) {
			t.Fatalf("%s x%d: sample data changed", c.st, c.channels)
		}
	}
}

func TestEmptyWaveformRoundTrip(t *testing.T) {
	src := &Waveform{Format: Format{SampleRate: 16000, Subtype: PCM16, Channels: 1}}
	got, err := DecodeBytes(encodeToBytes(t, src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Frames() != 0 {
		t.Fatalf("expected no frames, got %d", got.Frames())
	}
}

func TestProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.wav")
	f, _ := os.Create(path)
	if err := Encode(f, ramp(PCM24, 2, 10)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_ = f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	got, err := Probe(r)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	want := Format{SampleRate: 22050, Subtype: PCM24, Channels: 2}
	if got != want {
		t.Fatalf("probe = %v, want %v", got, want)
	}
}

func TestDecodeRejectsUnknownSubtype(t *testing.T) {
	// 8-bit unsigned PCM is not in the width table.
	path := filepath.Join(t.TempDir(), "u8.wav")
	f, _ := os.Create(path)
	enc := wav.NewEncoder(f, 8000, 8, 1, 1)
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: 8000}, Data: []int{0, 10, -10, 5}, SourceBitDepth: 8}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = f.Close()

	data, _ := os.ReadFile(path)
	if _, err := DecodeBytes(data); !errors.Is(err, ErrUnsupportedSubtype) {
		t.Fatalf("expected ErrUnsupportedSubtype, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeBytes([]byte("definitely not a riff header")); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestSampleWidthTable(t *testing.T) {
	want := map[Subtype]int{PCM16: 2, PCM24: 3, PCM32: 4, Float: 4, Double: 8}
	for st, w := range want {
		got, err := SampleWidth(st)
		if err != nil || got != w {
			t.Fatalf("SampleWidth(%s) = %d, %v; want %d", st, got, err, w)
		}
	}
	if _, err := SampleWidth(SubtypeUnknown); !errors.Is(err, ErrUnsupportedSubtype) {
		t.Fatalf("expected lookup miss to fail, got %v", err)
	}
}

func TestSlice(t *testing.T) {
	src := &Waveform{Format: Format{SampleRate: 1000, Subtype: PCM16, Channels: 2}, Data: make([]byte, 1000*4)}
	for i := range src.Data {
		src.Data[i] = byte(i)
	}

	clip, err := src.Slice(250*time.Millisecond, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("slice: %v", err)
	}
	if clip.Frames() != 250 {
		t.Fatalf("frames = %d, want 250", clip.Frames())
	}
	if clip.Data[0] != src.Data[250*4] {
		t.Fatalf("slice starts at wrong frame")
	}
	if clip.Format != src.Format {
		t.Fatalf("slice changed format")
	}

	tail, err := src.Slice(900*time.Millisecond, 5*time.Second)
	if err != nil {
		t.Fatalf("clamped slice: %v", err)
	}
	if tail.Frames() != 100 {
		t.Fatalf("clamped frames = %d, want 100", tail.Frames())
	}

	if _, err := src.Slice(2*time.Second, 3*time.Second); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("expected ErrEmptyRange past the end, got %v", err)
	}
	if _, err := src.Slice(time.Second/2, time.Second/2); !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("expected ErrEmptyRange for zero width, got %v", err)
	}
}

func TestFloat32MonoDownmix(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint16(data[0:], uint16(16384))
	binary.LittleEndian.PutUint16(data[2:], uint16(0))
	binary.LittleEndian.PutUint16(data[4:], uint16(0xC000)) // -16384
	binary.LittleEndian.PutUint16(data[6:], uint16(0xC000))
	wf := &Waveform{Format: Format{SampleRate: 8000, Subtype: PCM16, Channels: 2}, Data: data}

	got, err := wf.Float32Mono()
	if err != nil {
		t.Fatalf("mono: %v", err)
	}
	if len(got) != 2 || got[0] != 0.25 || got[1] != -0.5 {
		t.Fatalf("downmix = %v, want [0.25 -0.5]", got)
	}
}

func TestFromFloat32MonoClips(t *testing.T) {
	wf := FromFloat32Mono([]float32{0, 1, -1, 2, -2}, 16000)
	if wf.Format != (Format{SampleRate: 16000, Subtype: PCM16, Channels: 1}) {
		t.Fatalf("format = %s", wf.Format)
	}
	want := []int16{0, 32767, -32767, 32767, -32768}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(wf.Data[i*2:])); got != w {
			t.Fatalf("sample %d = %d, want %d", i, got, w)
		}
	}
}

// riffPCM24 builds a 24-bit mono file by hand, word aligned when pad is set.
func riffPCM24(samples []byte, pad bool) []byte {
	var b []byte
	le32 := func(v int) { b = binary.LittleEndian.AppendUint32(b, uint32(v)) }
	le16 := func(v int) { b = binary.LittleEndian.AppendUint16(b, uint16(v)) }
	body := len(samples)
	if pad && body%2 == 1 {
		body++
	}
	b = append(b, "RIFF"...)
	le32(4 + 24 + 8 + body)
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	le32(16)
	le16(1)
	le16(1)
	le32(22050)
	le32(22050 * 3)
	le16(3)
	le16(24)
	b = append(b, "data"...)
	le32(len(samples))
	b = append(b, samples...)
	if body > len(samples) {
		b = append(b, 0)
	}
	return b
}

func TestDecodeOddLengthPCM24(t *testing.T) {
	src := ramp(PCM24, 1, 441)
	for _, pad := range []bool{true, false} {
		got, err := DecodeBytes(riffPCM24(src.Data, pad))
		if err != nil {
			t.Fatalf("pad=%v: decode: %v", pad, err)
		}
		if got.Frames() != 441 || string(got.Data) != string(src.Data) {
			t.Fatalf("pad=%v: frames %d, data changed=%v", pad, got.Frames(), string(got.Data) != string(src.Data))
		}
	}
}

func TestEncodeWordAlignsOddData(t *testing.T) {
	src := ramp(PCM24, 1, 441)
	out := encodeToBytes(t, src)
	if len(out)%2 != 0 {
		t.Fatalf("file length %d is not word aligned", len(out))
	}
	if riff := int(binary.LittleEndian.Uint32(out[4:8])); riff != len(out)-8 {
		t.Fatalf("riff size %d, want %d", riff, len(out)-8)
	}
	if data := int(binary.LittleEndian.Uint32(out[40:44])); data != len(src.Data) {
		t.Fatalf("data chunk size %d, want %d", data, len(src.Data))
	}
	if out[len(out)-1] != 0 {
		t.Fatalf("pad byte = %d, want 0", out[len(out)-1])
	}
}
