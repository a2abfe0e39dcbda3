package asr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"ljbuild/internal/wave"
)

// OpenAIOptions configure an OpenAI-compatible transcription endpoint.
type OpenAIOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	TempDir string
}

// OpenAI uploads the stream as a 16 kHz PCM WAV and reads verbose_json
// segments back.
type OpenAI struct {
	client  *openai.Client
	model   string
	tempDir string
	logger  logrus.FieldLogger
}

// NewOpenAI builds a client for opts.
func NewOpenAI(opts OpenAIOptions, logger logrus.FieldLogger) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("asr.openai_key (or OPENAI_API_KEY) is required for the openai backend")
	}
	cc := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cc.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAI{client: openai.NewClientWithConfig(cc), model: model, tempDir: opts.TempDir, logger: logger}, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, samples []float32, language string) ([]Segment, error) {
	path, err := o.writeTemp(samples)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	o.logger.WithFields(logrus.Fields{"segments": len(resp.Segments), "duration": resp.Duration}).Debug("openai transcription done")
	out := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		out = append(out, Segment{Text: s.Text, Start: secondsToDuration(s.Start), End: secondsToDuration(s.End)})
	}
	return out, nil
}

func (o *OpenAI) Close() error { return nil }

func (o *OpenAI) writeTemp(samples []float32) (string, error) {
	if o.tempDir != "" {
		if err := os.MkdirAll(o.tempDir, 0o755); err != nil {
			return "", err
		}
	}
	f, err := os.CreateTemp(o.tempDir, "ljbuild-asr-*.wav")
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := wave.Encode(f, wave.FromFloat32Mono(samples, SampleRate)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}
