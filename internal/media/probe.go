package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoAudioStream is returned when the input has nothing to transcribe.
var ErrNoAudioStream = errors.New("no audio stream")

// Metadata describes the first audio stream of a media file.
type Metadata struct {
	DurationSec float64
	SampleRate  int
	Channels    int
	BitDepth    int
	Codec       string
	Container   string
}

// Probe runs ffprobe on path.
func Probe(ctx context.Context, ffprobe, path string) (*Metadata, error) {
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path)
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*Metadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			BitsPerSample int    `json:"bits_per_sample"`
			BitsPerRaw    string `json:"bits_per_raw_sample"`
			Duration      string `json:"duration"`
		} `json:"streams"`
		Format struct {
			Duration   string `json:"duration"`
			FormatName string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, s := range probe.Streams {
		if s.CodecType != "audio" {
			continue
		}
		m := &Metadata{
			Channels:  s.Channels,
			BitDepth:  s.BitsPerSample,
			Codec:     s.CodecName,
			Container: probe.Format.FormatName,
		}
		m.SampleRate, _ = strconv.Atoi(s.SampleRate)
		if m.BitDepth == 0 {
			// flac reports its depth only here
			m.BitDepth, _ = strconv.Atoi(s.BitsPerRaw)
		}
		dur := probe.Format.Duration
		if dur == "" {
			dur = s.Duration
		}
		m.DurationSec, _ = strconv.ParseFloat(dur, 64)
		if m.SampleRate <= 0 || m.Channels <= 0 {
			return nil, fmt.Errorf("audio stream reports rate=%d channels=%d", m.SampleRate, m.Channels)
		}
		return m, nil
	}
	return nil, ErrNoAudioStream
}
