// Package asr turns 16 kHz mono samples into timestamped text segments.
package asr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ljbuild/internal/config"
)

// SampleRate is the rate every Transcriber expects.
const SampleRate = 16000

// ErrNotBuilt is returned when the binary lacks the requested engine.
var ErrNotBuilt = errors.New("whisper support not built; rebuild with -tags whisper")

// Segment is recognized text with its offsets from the start of the stream.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Transcriber runs recognition over a whole stream in one call.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, language string) ([]Segment, error)
	Close() error
}

// Backends accepted in asr.backend.
const (
	BackendWhisper = "whisper"
	BackendOpenAI  = "openai"
)

// NewTranscriber returns the engine selected by cfg.ASR.Backend.
func NewTranscriber(cfg *config.Config, logger logrus.FieldLogger) (Transcriber, error) {
	switch strings.ToLower(cfg.ASR.Backend) {
	case BackendWhisper, "":
		return newWhisper(cfg, logger)
	case BackendOpenAI:
		return NewOpenAI(OpenAIOptions{
			BaseURL: cfg.ASR.OpenAIBaseURL,
			APIKey:  cfg.ASR.OpenAIKey,
			Model:   cfg.ASR.OpenAIModel,
			TempDir: cfg.Paths.StateDir,
		}, logger)
	}
	return nil, fmt.Errorf("unknown asr backend %q", cfg.ASR.Backend)
}

// secondsToDuration rounds fractional seconds to the millisecond.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s*1000+0.5) * time.Millisecond
}
