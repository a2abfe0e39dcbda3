//go:build whisper

package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/sirupsen/logrus"

	"ljbuild/internal/config"
)

// whisperTranscriber runs whisper.cpp over the full stream.
type whisperTranscriber struct {
	model   whisper.Model
	threads int
	logger  logrus.FieldLogger
}

func newWhisper(cfg *config.Config, logger logrus.FieldLogger) (Transcriber, error) {
	path := os.ExpandEnv(cfg.ASR.ModelPath)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model %s: %w (run 'ljbuild setup')", path, err)
	}
	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	threads := cfg.ASR.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &whisperTranscriber{model: model, threads: threads, logger: logger}, nil
}

// WhisperBuilt reports whether whisper.cpp is linked in.
func WhisperBuilt() bool { return true }

func (w *whisperTranscriber) Transcribe(ctx context.Context, samples []float32, language string) ([]Segment, error) {
	wctx, err := w.model.NewContext()
	if err != nil {
		return nil, err
	}
	wctx.SetThreads(uint(w.threads))
	if lang := strings.TrimSpace(language); lang != "" {
		if err := wctx.SetLanguage(lang); err != nil {
			return nil, fmt.Errorf("language %q: %w", lang, err)
		}
	}
	w.logger.WithField("samples", len(samples)).Debug("whisper processing")
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Segment
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Segment{Text: seg.Text, Start: seg.Start, End: seg.End})
	}
	return out, nil
}

func (w *whisperTranscriber) Close() error {
	return w.model.Close()
}
