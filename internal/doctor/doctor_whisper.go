package doctor

import (
	"strings"

	"ljbuild/internal/asr"
	"ljbuild/internal/config"
)

func checkASR(cfg *config.Config) []Result {
	switch strings.ToLower(cfg.ASR.Backend) {
	case asr.BackendOpenAI:
		if cfg.ASR.OpenAIKey == "" {
			return []Result{{Name: "openai key", Pass: false, Detail: "set asr.openai_key or OPENAI_API_KEY"}}
		}
		return []Result{{Name: "openai key", Pass: true, Detail: cfg.ASR.OpenAIBaseURL}}
	}
	build := Result{Name: "whisper build", Pass: asr.WhisperBuilt(), Detail: "ok"}
	if !build.Pass {
		build.Detail = "rebuild with -tags whisper"
	}
	return []Result{build, checkFile("model file", cfg.ASR.ModelPath)}
}
