package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"ljbuild/internal/config"
)

func byName(results []Result) map[string]Result {
	out := map[string]Result{}
	for _, r := range results {
		out[r.Name] = r
	}
	return out
}

func TestRunReportsMissingPieces(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Default()
	cfg.Paths.ConfigPath = filepath.Join(dir, "missing.toml")
	cfg.Output.Root = filepath.Join(dir, "out")
	cfg.Media.FFmpeg = filepath.Join(dir, "no-ffmpeg")
	cfg.ASR.ModelPath = filepath.Join(dir, "model.bin")

	got := byName(Run(cfg))
	if got["config path"].Pass {
		t.Fatalf("missing config reported as present")
	}
	if got["ffmpeg"].Pass {
		t.Fatalf("missing ffmpeg reported as present")
	}
	if !got["output.root"].Pass {
		t.Fatalf("output root should be writable: %s", got["output.root"].Detail)
	}
	if got["model file"].Pass {
		t.Fatalf("missing model reported as present")
	}
	if _, ok := got["hook.command"]; ok {
		t.Fatalf("hook check should be skipped without a command")
	}
	if !Failed(Run(cfg)) {
		t.Fatalf("Failed should be true")
	}
}

func TestOpenAIBackendSkipsModel(t *testing.T) {
	cfg, _ := config.Default()
	cfg.Output.Root = t.TempDir()
	cfg.ASR.Backend = "openai"
	cfg.ASR.OpenAIKey = "k"
	got := byName(Run(cfg))
	if _, ok := got["model file"]; ok {
		t.Fatalf("model check should not run for openai")
	}
	if !got["openai key"].Pass {
		t.Fatalf("key present but check failed")
	}
}

func TestHookExecutable(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "post.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if checkHookExecutable(script + " --flag").Pass {
		t.Fatalf("non-executable script passed")
	}
	_ = os.Chmod(script, 0o755)
	if r := checkHookExecutable(script + " --flag"); !r.Pass {
		t.Fatalf("executable script failed: %s", r.Detail)
	}
	if checkHookExecutable(dir).Pass {
		t.Fatalf("directory passed")
	}
}
