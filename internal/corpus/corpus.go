// Package corpus owns the on-disk LJSpeech layout: one waveform per utterance
// under wavs/ and a single metadata manifest.
package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ljbuild/internal/manifest"
	"ljbuild/internal/wave"
)

// ErrInvalidID is returned for identifiers that cannot be used as a file stem.
var ErrInvalidID = errors.New("invalid utterance identifier")

const waveExt = ".wav"

// Layout resolves paths inside one dataset directory.
type Layout struct {
	Dir          string
	WavsDir      string
	MetadataFile string
}

// NewLayout returns the default wavs/ + metadata.csv layout under dir.
func NewLayout(dir string) Layout {
	return Layout{Dir: dir, WavsDir: "wavs", MetadataFile: "metadata.csv"}
}

// WavsPath is the directory holding utterance files.
func (l Layout) WavsPath() string {
	return filepath.Join(l.Dir, l.WavsDir)
}

// MetadataPath is the manifest path.
func (l Layout) MetadataPath() string {
	return filepath.Join(l.Dir, l.MetadataFile)
}

// UtterancePath is wavs/<id>.wav.
func (l Layout) UtterancePath(id string) string {
	return filepath.Join(l.WavsPath(), id+waveExt)
}

// ValidateID rejects ids that would escape wavs/ or produce no file name.
func ValidateID(id string) error {
	switch {
	case id == "", strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	case strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidID, id)
	}
	return nil
}

// Writer persists utterances and the manifest for one layout.
type Writer struct {
	layout Layout
}

// NewWriter returns a writer for layout.
func NewWriter(layout Layout) *Writer {
	return &Writer{layout: layout}
}

// Layout returns the writer's layout.
func (w *Writer) Layout() Layout {
	return w.layout
}

// Prepare creates the dataset and wavs directories.
func (w *Writer) Prepare() error {
	if err := os.MkdirAll(w.layout.WavsPath(), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", w.layout.WavsPath(), err)
	}
	return nil
}

// WriteUtterance creates or truncates wavs/<id>.wav with wf.
func (w *Writer) WriteUtterance(id string, wf *wave.Waveform) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	path := w.layout.UtterancePath(id)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := wave.Encode(f, wf); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// WriteManifest replaces the manifest with every accumulated entry.
func (w *Writer) WriteManifest(acc *manifest.Accumulator, format manifest.Format) error {
	var buf bytes.Buffer
	if err := acc.Encode(&buf, format); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return os.WriteFile(w.layout.MetadataPath(), buf.Bytes(), 0o644)
}
