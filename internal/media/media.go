// Package media turns one long recording into utterance records by running
// ASR with timestamps and slicing the source stream at segment boundaries.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ljbuild/internal/asr"
	"ljbuild/internal/pipeline"
	"ljbuild/internal/vad"
	"ljbuild/internal/wave"
)

// ErrNoSegments is returned when ASR recognizes nothing in the input.
var ErrNoSegments = errors.New("transcription produced no segments")

// IDPrefix starts every media utterance identifier.
const IDPrefix = "AUDIO_WAV"

// Options tune a media run.
type Options struct {
	Language          string
	BatchSize         int
	FFprobe           string
	Decoder           Decoder
	SkipSilent        bool
	VADAggressiveness int
}

// Source yields one ClipAudio record per recognized segment, in order.
type Source struct {
	stream   *wave.Waveform
	segments []asr.Segment
	pos      int
}

// Open probes, decodes and transcribes path. The returned source holds the
// decoded stream in memory until closed.
func Open(ctx context.Context, path string, tr asr.Transcriber, opts Options, logger logrus.FieldLogger) (*Source, error) {
	meta, err := Probe(ctx, opts.FFprobe, path)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"file":     path,
		"codec":    meta.Codec,
		"rate":     meta.SampleRate,
		"channels": meta.Channels,
		"duration": meta.DurationSec,
	}).Info("media probed")

	stream, err := opts.Decoder.Decode(ctx, path, meta)
	if err != nil {
		return nil, err
	}
	mono, err := stream.Float32Mono()
	if err != nil {
		return nil, err
	}
	samples := resampleLinear(mono, stream.SampleRate, asr.SampleRate)

	started := time.Now()
	segs, err := tr.Transcribe(ctx, samples, opts.Language)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", path, err)
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSegments)
	}
	logger.WithFields(logrus.Fields{"segments": len(segs), "took": time.Since(started).Round(time.Millisecond).String()}).Info("transcription done")

	segs = flatten(batches(segs, opts.BatchSize, logger))
	segs = usable(segs, stream.Duration(), logger)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%s: no segment selects audio: %w", path, ErrNoSegments)
	}
	if opts.SkipSilent {
		segs, err = dropSilent(segs, samples, opts.VADAggressiveness, logger)
		if err != nil {
			return nil, err
		}
	}
	return &Source{stream: stream, segments: segs}, nil
}

// Stream is the decoded source audio.
func (s *Source) Stream() *wave.Waveform {
	return s.stream
}

// Len is the number of records the source will yield.
func (s *Source) Len() int {
	return len(s.segments)
}

// Next implements pipeline.Source.
func (s *Source) Next(ctx context.Context) (pipeline.Record, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Record{}, err
	}
	if s.pos >= len(s.segments) {
		return pipeline.Record{}, io.EOF
	}
	seg := s.segments[s.pos]
	s.pos++
	return pipeline.Record{
		ID:         SegmentID(seg.Start, seg.End),
		Transcript: seg.Text,
		Audio:      pipeline.ClipAudio{Source: s.stream, Start: seg.Start, End: seg.End},
	}, nil
}

// Close releases the decoded stream.
func (s *Source) Close() error {
	s.stream = nil
	s.segments = nil
	return nil
}

// SegmentID renders AUDIO_WAV_<start>_<end> with seconds in shortest decimal
// form, always carrying a fractional part (0.0, 2.5, 12.34).
func SegmentID(start, end time.Duration) string {
	return IDPrefix + "_" + formatSeconds(start) + "_" + formatSeconds(end)
}

func formatSeconds(d time.Duration) string {
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func batches(segs []asr.Segment, size int, logger logrus.FieldLogger) [][]asr.Segment {
	if size <= 0 {
		size = len(segs)
	}
	var out [][]asr.Segment
	for i := 0; i < len(segs); i += size {
		end := min(i+size, len(segs))
		out = append(out, segs[i:end])
	}
	for i, b := range out {
		logger.WithFields(logrus.Fields{"batch": i + 1, "of": len(out), "segments": len(b)}).Debug("segment batch")
	}
	return out
}

func flatten(bs [][]asr.Segment) []asr.Segment {
	var out []asr.Segment
	for _, b := range bs {
		out = append(out, b...)
	}
	return out
}

// usable trims segment text and drops spans that select no audio.
func usable(segs []asr.Segment, total time.Duration, logger logrus.FieldLogger) []asr.Segment {
	out := segs[:0]
	for _, s := range segs {
		s.Text = strings.TrimSpace(s.Text)
		if s.End <= s.Start || s.Start >= total {
			logger.WithFields(logrus.Fields{"start": s.Start, "end": s.End}).Warn("segment selects no audio, dropped")
			continue
		}
		out = append(out, s)
	}
	return out
}

func dropSilent(segs []asr.Segment, samples []float32, aggressiveness int, logger logrus.FieldLogger) ([]asr.Segment, error) {
	det, err := vad.New(asr.SampleRate, aggressiveness)
	if err != nil {
		return nil, err
	}
	out := segs[:0]
	for _, s := range segs {
		from := min(int(s.Start.Seconds()*asr.SampleRate), len(samples))
		to := min(int(s.End.Seconds()*asr.SampleRate), len(samples))
		voiced, err := det.Voiced(samples[from:to])
		if err != nil {
			return nil, err
		}
		if !voiced {
			logger.WithField("id", SegmentID(s.Start, s.End)).Info("silent segment skipped")
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
