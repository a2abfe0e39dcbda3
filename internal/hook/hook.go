// Package hook runs a user command after a corpus build finishes.
package hook

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"ljbuild/internal/config"
)

// Job describes a finished build.
type Job struct {
	DatasetDir string
	Metadata   string
	Utterances int
	RunID      string
}

// Runner executes hook.command with the build exposed through env vars.
type Runner struct {
	cfg    *config.Config
	logger logrus.FieldLogger
}

func NewRunner(cfg *config.Config, logger logrus.FieldLogger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Enabled reports whether a command is configured.
func (r *Runner) Enabled() bool {
	return strings.TrimSpace(r.cfg.Hook.Command) != ""
}

// Run executes the configured command line.
func (r *Runner) Run(ctx context.Context, job Job) error {
	argv, err := ParseArgs(r.cfg.Hook.Command)
	if err != nil {
		return fmt.Errorf("parse hook.command: %w", err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("no hook.command configured")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if r.cfg.Hook.TimeoutSec > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(float64(time.Second)*r.cfg.Hook.TimeoutSec))
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	for k, v := range r.cfg.Hook.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Env,
		"LJBUILD_DATASET_DIR="+job.DatasetDir,
		"LJBUILD_METADATA="+job.Metadata,
		"LJBUILD_UTTERANCES="+strconv.Itoa(job.Utterances),
		"LJBUILD_RUN_ID="+job.RunID,
	)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.logger.Infof("hook output: %s", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("hook failed: %w", err)
	}
	return nil
}

// ParseArgs splits a shell-quoted command line.
func ParseArgs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return shlex.Split(raw)
}
