package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"ljbuild/internal/wave"
)

// Audio is a record payload that can be turned into a canonical waveform.
type Audio interface {
	Normalize() (*wave.Waveform, error)
}

// EncodedAudio is a complete container held in memory (dataset rows).
type EncodedAudio struct {
	Data []byte
}

// Normalize decodes the container without resampling or remixing.
func (a EncodedAudio) Normalize() (*wave.Waveform, error) {
	return wave.DecodeBytes(a.Data)
}

// ClipAudio is the half-open range [Start, End) of a decoded parent stream.
type ClipAudio struct {
	Source *wave.Waveform
	Start  time.Duration
	End    time.Duration
}

// Normalize slices the parent stream at the clip bounds.
func (a ClipAudio) Normalize() (*wave.Waveform, error) {
	if a.Source == nil {
		return nil, fmt.Errorf("clip has no source stream")
	}
	return a.Source.Slice(a.Start, a.End)
}

// Record is one utterance flowing from a source to the writer.
type Record struct {
	ID         string
	Transcript string
	Audio      Audio
}

// Source yields records in order. Next returns io.EOF after the last one.
type Source interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}

// SliceSource serves a fixed list of records.
type SliceSource struct {
	records []Record
	pos     int
}

// NewSliceSource returns a source over records.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// Close implements Source.
func (s *SliceSource) Close() error { return nil }
