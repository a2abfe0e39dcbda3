package doctor

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ljbuild/internal/config"
	"ljbuild/internal/hook"
)

// Result represents a diagnostic check.
type Result struct {
	Name   string
	Pass   bool
	Detail string
}

// Run executes doctor checks.
func Run(cfg *config.Config) []Result {
	results := []Result{
		checkFile("config path", cfg.Paths.ConfigPath),
		checkTool("ffmpeg", cfg.Media.FFmpeg),
		checkTool("ffprobe", cfg.Media.FFprobe),
		checkOutputRoot(cfg.Output.Root),
	}
	results = append(results, checkASR(cfg)...)
	if cfg.Hook.Command != "" {
		results = append(results, checkHookExecutable(cfg.Hook.Command))
	}
	return results
}

// Failed reports whether any check did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return true
		}
	}
	return false
}

func checkFile(label, path string) Result {
	if path == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if _, err := os.Stat(os.ExpandEnv(path)); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: path}
}

func checkTool(label, bin string) Result {
	if bin == "" {
		bin = label
	}
	resolved, err := exec.LookPath(os.ExpandEnv(bin))
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error() + " (install ffmpeg)"}
	}
	out, err := exec.Command(resolved, "-version").Output()
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	first, _, _ := strings.Cut(string(out), "\n")
	return Result{Name: label, Pass: true, Detail: strings.TrimSpace(first)}
}

func checkOutputRoot(root string) Result {
	label := "output.root"
	abs, err := filepath.Abs(os.ExpandEnv(root))
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	f, err := os.CreateTemp(abs, ".doctor-*")
	if err != nil {
		return Result{Name: label, Pass: false, Detail: "not writable: " + err.Error()}
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return Result{Name: label, Pass: true, Detail: abs}
}

func checkHookExecutable(command string) Result {
	label := "hook.command"
	argv, err := hook.ParseArgs(command)
	if err != nil || len(argv) == 0 {
		return Result{Name: label, Pass: false, Detail: "cannot parse command line"}
	}
	path := os.ExpandEnv(argv[0])
	// If contains a path separator, treat as explicit path.
	if strings.Contains(path, "/") || strings.Contains(path, "\\") {
		info, err := os.Stat(path)
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
		if info.IsDir() {
			return Result{Name: label, Pass: false, Detail: "is a directory; set hook.command to an executable file"}
		}
		if info.Mode().Perm()&0o111 == 0 {
			return Result{Name: label, Pass: false, Detail: "not executable; chmod +x or choose another command"}
		}
		return Result{Name: label, Pass: true, Detail: path}
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: resolved}
}
