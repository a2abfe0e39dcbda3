package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"ljbuild/internal/wave"
)

// Decoder extracts the first audio stream of a media file as WAV at the
// stream's native rate, channel count and bit depth.
type Decoder struct {
	FFmpeg    string
	ExtraArgs string // shell-quoted, inserted before the output path
	TempDir   string
}

func (d Decoder) args(in, out string, meta *Metadata) ([]string, error) {
	args := []string{
		"-nostdin", "-hide_banner", "-v", "error", "-y",
		"-i", in,
		"-map", "0:a:0", "-vn",
		"-acodec", pcmCodec(meta),
		"-ar", strconv.Itoa(meta.SampleRate),
		"-ac", strconv.Itoa(meta.Channels),
	}
	if strings.TrimSpace(d.ExtraArgs) != "" {
		extra, err := shlex.Split(d.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parse media.ffmpeg_args: %w", err)
		}
		args = append(args, extra...)
	}
	return append(args, out), nil
}

// pcmCodec keeps lossless sources at their depth. Lossy codecs report no
// depth and decode to 16-bit.
func pcmCodec(meta *Metadata) string {
	switch {
	case strings.HasPrefix(meta.Codec, "pcm_f64"):
		return "pcm_f64le"
	case strings.HasPrefix(meta.Codec, "pcm_f32"):
		return "pcm_f32le"
	}
	switch meta.BitDepth {
	case 24:
		return "pcm_s24le"
	case 32:
		return "pcm_s32le"
	}
	return "pcm_s16le"
}

// Decode runs ffmpeg into a temp file and loads it.
func (d Decoder) Decode(ctx context.Context, path string, meta *Metadata) (*wave.Waveform, error) {
	ffmpeg := d.FFmpeg
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	tmp, err := os.MkdirTemp(d.TempDir, "ljbuild-media-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	out := filepath.Join(tmp, "stream.wav")
	args, err := d.args(path, out, meta)
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}
	f, err := os.Open(out)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return wave.Decode(f)
}
