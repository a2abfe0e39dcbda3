package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ljbuild/internal/manifest"
	"ljbuild/internal/wave"
)

func testWave() *wave.Waveform {
	return &wave.Waveform{
		Format: wave.Format{SampleRate: 16000, Subtype: wave.PCM16, Channels: 1},
		Data:   make([]byte, 3200),
	}
}

func TestWriteUtteranceCreatesNamedFile(t *testing.T) {
	w := NewWriter(NewLayout(filepath.Join(t.TempDir(), "british_south")))
	if err := w.Prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	path, err := w.WriteUtterance("utt_001", testWave())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "utt_001.wav" || filepath.Dir(path) != w.Layout().WavsPath() {
		t.Fatalf("unexpected path %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := wave.Decode(f)
	if err != nil {
		t.Fatalf("decode written file: %v", err)
	}
	if got.Duration() != 100*time.Millisecond {
		t.Fatalf("duration = %s", got.Duration())
	}
}

func TestWriteUtteranceOverwrites(t *testing.T) {
	w := NewWriter(NewLayout(t.TempDir()))
	_ = w.Prepare()
	if _, err := w.WriteUtterance("dup", testWave()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	short := testWave()
	short.Data = short.Data[:320]
	path, err := w.WriteUtterance("dup", short)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, _ := os.ReadFile(path)
	got, err := wave.DecodeBytes(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Frames() != 160 {
		t.Fatalf("file not truncated, frames=%d", got.Frames())
	}
}

func TestValidateID(t *testing.T) {
	bad := []string{"", " ", ".", "..", "../escape", `a\b`, "a/b"}
	for _, id := range bad {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("ValidateID(%q) = %v, want ErrInvalidID", id, err)
		}
	}
	for _, id := range []string{"utt_001", "AUDIO_WAV_0.0_2.5", "p225_001"} {
		if err := ValidateID(id); err != nil {
			t.Fatalf("ValidateID(%q) = %v", id, err)
		}
	}
}

func TestWriteManifestReplacesFile(t *testing.T) {
	w := NewWriter(NewLayout(t.TempDir()))
	_ = w.Prepare()
	if err := os.WriteFile(w.Layout().MetadataPath(), []byte("stale|row|row\nmore|rows|rows"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	acc := manifest.NewAccumulator()
	acc.Add(manifest.Entry{ID: "utt_002", Text: "goodbye", RawText: "goodbye"})
	if err := w.WriteManifest(acc, manifest.LJSpeech); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	got, _ := os.ReadFile(w.Layout().MetadataPath())
	if string(got) != "utt_002|goodbye|goodbye" {
		t.Fatalf("manifest = %q", got)
	}
}

func TestCardRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(NewLayout(dir))
	card := Card{
		Name:           "stephen-fry",
		Format:         "ljspeech",
		Source:         "media",
		Language:       "en",
		Utterances:     3,
		TotalSeconds:   7.5,
		SampleRates:    []int{44100},
		Subtypes:       []string{"PCM_16"},
		Manifest:       "metadata.csv",
		ManifestFormat: "quoted",
		RunID:          "run-1",
		BuiltAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := w.WriteCard(card); err != nil {
		t.Fatalf("write card: %v", err)
	}
	got, err := ReadCard(dir)
	if err != nil {
		t.Fatalf("read card: %v", err)
	}
	if got.Name != card.Name || got.Utterances != 3 || !got.BuiltAt.Equal(card.BuiltAt) {
		t.Fatalf("card mismatch: %+v", got)
	}
}
