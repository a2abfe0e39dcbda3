// Package wave decodes and encodes the uncompressed RIFF/WAVE container that
// every utterance is normalized to.
package wave

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSubtype is returned for sample encodings outside the width table.
var ErrUnsupportedSubtype = errors.New("unsupported audio subtype")

// WAVE format tags.
const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

// Subtype is the sample encoding of a waveform.
type Subtype int

const (
	SubtypeUnknown Subtype = iota
	PCM16
	PCM24
	PCM32
	Float
	Double
)

var subtypeNames = map[Subtype]string{
	PCM16:  "PCM_16",
	PCM24:  "PCM_24",
	PCM32:  "PCM_32",
	Float:  "FLOAT",
	Double: "DOUBLE",
}

// sampleWidths maps each supported subtype to its byte width.
var sampleWidths = map[Subtype]int{
	PCM16:  2,
	PCM24:  3,
	PCM32:  4,
	Float:  4,
	Double: 8,
}

func (s Subtype) String() string {
	if n, ok := subtypeNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// SampleWidth returns the byte width of one sample of s.
func SampleWidth(s Subtype) (int, error) {
	w, ok := sampleWidths[s]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedSubtype, s)
	}
	return w, nil
}

func (s Subtype) formatTag() int {
	if s == Float || s == Double {
		return formatIEEEFloat
	}
	return formatPCM
}

// subtypeOf resolves a header's format tag and bit depth.
func subtypeOf(tag, bitDepth uint16) (Subtype, error) {
	switch {
	case tag == formatPCM && bitDepth == 16:
		return PCM16, nil
	case tag == formatPCM && bitDepth == 24:
		return PCM24, nil
	case tag == formatPCM && bitDepth == 32:
		return PCM32, nil
	case tag == formatIEEEFloat && bitDepth == 32:
		return Float, nil
	case tag == formatIEEEFloat && bitDepth == 64:
		return Double, nil
	case tag == formatExtensible:
		return SubtypeUnknown, fmt.Errorf("%w: WAVE_FORMAT_EXTENSIBLE, %d-bit", ErrUnsupportedSubtype, bitDepth)
	}
	return SubtypeUnknown, fmt.Errorf("%w: format tag %d, %d-bit", ErrUnsupportedSubtype, tag, bitDepth)
}

// Format describes a waveform's encoding parameters.
type Format struct {
	SampleRate int
	Subtype    Subtype
	Channels   int
}

// FrameSize is the byte size of one interleaved frame, or 0 for unknown subtypes.
func (f Format) FrameSize() int {
	w, err := SampleWidth(f.Subtype)
	if err != nil {
		return 0
	}
	return w * f.Channels
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz %s x%d", f.SampleRate, f.Subtype, f.Channels)
}
