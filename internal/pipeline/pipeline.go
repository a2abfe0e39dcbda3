// Package pipeline drives records from a source through normalization into
// the corpus writer and manifest accumulator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ljbuild/internal/corpus"
	"ljbuild/internal/manifest"
)

// ErrDuplicateID is returned when a source repeats an identifier under the
// error policy.
var ErrDuplicateID = errors.New("duplicate utterance identifier")

// DuplicatePolicy controls what happens when an identifier repeats.
type DuplicatePolicy string

const (
	DuplicateError     DuplicatePolicy = "error"
	DuplicateSkip      DuplicatePolicy = "skip"
	DuplicateOverwrite DuplicatePolicy = "overwrite"
)

// ParseDuplicatePolicy maps a config value to a policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateError, nil
	case DuplicateError, DuplicateSkip, DuplicateOverwrite:
		return p, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q", s)
}

// Options tune a run.
type Options struct {
	OnDuplicate DuplicatePolicy
	Format      manifest.Format
	// ProgressEvery logs progress every n written records; 0 disables it.
	ProgressEvery int
}

// Stats summarizes a finished run.
type Stats struct {
	Written    int
	Skipped    int
	Duplicates int
	Audio      time.Duration
	Elapsed    time.Duration
}

// Run consumes src until io.EOF, writing each record's waveform and then its
// manifest entry. The manifest is written once, after the last record. Any
// error aborts the run before the manifest is touched.
func Run(ctx context.Context, src Source, w *corpus.Writer, acc *manifest.Accumulator, opts Options, logger logrus.FieldLogger) (Stats, error) {
	var st Stats
	started := time.Now()
	if opts.OnDuplicate == "" {
		opts.OnDuplicate = DuplicateError
	}
	if opts.Format == "" {
		opts.Format = manifest.Quoted
	}
	if err := w.Prepare(); err != nil {
		return st, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, fmt.Errorf("read record %d: %w", st.Written+st.Skipped+1, err)
		}
		if err := corpus.ValidateID(rec.ID); err != nil {
			return st, err
		}
		if acc.Has(rec.ID) {
			st.Duplicates++
			switch opts.OnDuplicate {
			case DuplicateError:
				return st, fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
			case DuplicateSkip:
				logger.WithField("id", rec.ID).Warn("duplicate id skipped")
				st.Skipped++
				continue
			default:
				logger.WithField("id", rec.ID).Warn("duplicate id overwrites earlier file")
			}
		}
		if rec.Audio == nil {
			return st, fmt.Errorf("%s: record has no audio", rec.ID)
		}
		wf, err := rec.Audio.Normalize()
		if err != nil {
			return st, fmt.Errorf("%s: %w", rec.ID, err)
		}
		if _, err := w.WriteUtterance(rec.ID, wf); err != nil {
			return st, fmt.Errorf("%s: %w", rec.ID, err)
		}
		acc.Add(manifest.Entry{ID: rec.ID, Text: rec.Transcript, RawText: rec.Transcript})
		st.Written++
		st.Audio += wf.Duration()
		if opts.ProgressEvery > 0 && st.Written%opts.ProgressEvery == 0 {
			logger.WithField("written", st.Written).Info("progress")
		}
	}
	if opts.Format == manifest.LJSpeech {
		if unsafe := acc.Unsafe(); len(unsafe) > 0 {
			logger.WithField("ids", unsafe).Warn("transcripts contain the delimiter or line breaks; manifest rows will be ambiguous")
		}
	}
	if err := w.WriteManifest(acc, opts.Format); err != nil {
		return st, err
	}
	st.Elapsed = time.Since(started)
	logger.WithFields(logrus.Fields{
		"written":  st.Written,
		"skipped":  st.Skipped,
		"audio":    st.Audio.Round(time.Millisecond).String(),
		"manifest": w.Layout().MetadataPath(),
	}).Info("corpus written")
	return st, nil
}
