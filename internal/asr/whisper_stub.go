//go:build !whisper

package asr

import (
	"github.com/sirupsen/logrus"

	"ljbuild/internal/config"
)

func newWhisper(cfg *config.Config, logger logrus.FieldLogger) (Transcriber, error) {
	return nil, ErrNotBuilt
}

// WhisperBuilt reports whether whisper.cpp is linked in.
func WhisperBuilt() bool { return false }
