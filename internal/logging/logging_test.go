package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ljbuild/internal/config"
)

func TestConfigureWritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Default()
	cfg.Paths.StateDir = dir
	cfg.Paths.ModelsDir = filepath.Join(dir, "models")
	cfg.Paths.LogPath = filepath.Join(dir, "logs", "ljbuild.log")
	cfg.Logging.Stdout = false
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "warn"

	logger, err := Configure(cfg)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	logger.Info("dropped")
	logger.WithField("id", "utt_001").Warn("kept")

	data, err := os.ReadFile(cfg.Paths.LogPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	got := string(data)
	if strings.Contains(got, "dropped") || !strings.Contains(got, `"id":"utt_001"`) {
		t.Fatalf("log = %q", got)
	}
}
