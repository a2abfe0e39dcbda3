package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"ljbuild/internal/manifest"
)

const (
	DefaultLanguage      = "en"
	DefaultBatchSize     = 64
	DefaultProgressEvery = 100
	defaultPageSize      = 100
	defaultHubURL        = "https://datasets-server.huggingface.co"
	defaultModelName     = "ggml-large-v3-turbo-q8_0.bin"
	defaultStateDirLinux = ".local/state/ljbuild"
	defaultConfigDir     = ".config/ljbuild"
	defaultMySQLQuery    = "SELECT file_path, transcription_original FROM audio_files ORDER BY id"
)

// Config holds user configuration loaded from TOML.
type Config struct {
	Output struct {
		Root           string `toml:"root"`
		Name           string `toml:"name"`
		WavsDir        string `toml:"wavs_dir"`
		MetadataFile   string `toml:"metadata_file"`
		ManifestFormat string `toml:"manifest_format"` // quoted, ljspeech
		OnDuplicate    string `toml:"on_duplicate"`    // error, skip, overwrite
		ProgressEvery  int    `toml:"progress_every"`  // 0 disables progress lines
		WriteCard      bool   `toml:"write_card"`
	} `toml:"output"`

	Dataset struct {
		Source      string `toml:"source"` // hub, jsonl, librispeech, mysql
		Name        string `toml:"name"`
		Subset      string `toml:"subset"`
		Split       string `toml:"split"`
		Path        string `toml:"path"`
		HubURL      string `toml:"hub_url"`
		Token       string `toml:"token"`
		PageSize    int    `toml:"page_size"`
		DSN         string `toml:"dsn"`
		Query       string `toml:"query"`
		IDColumn    string `toml:"id_column"`
		TextColumn  string `toml:"text_column"`
		AudioColumn string `toml:"audio_column"`
	} `toml:"dataset"`

	Media struct {
		FFmpeg            string `toml:"ffmpeg"`
		FFprobe           string `toml:"ffprobe"`
		FFmpegArgs        string `toml:"ffmpeg_args"`
		BatchSize         int    `toml:"batch_size"`
		SkipSilent        bool   `toml:"skip_silent"`
		VADAggressiveness int    `toml:"vad_aggressiveness"`
	} `toml:"media"`

	ASR struct {
		Backend       string `toml:"backend"` // whisper, openai
		ModelPath     string `toml:"model_path"`
		Language      string `toml:"language"`
		Threads       int    `toml:"threads"`
		OpenAIBaseURL string `toml:"openai_base_url"`
		OpenAIKey     string `toml:"openai_key"`
		OpenAIModel   string `toml:"openai_model"`
	} `toml:"asr"`

	Hook struct {
		Command    string            `toml:"command"`
		TimeoutSec float64           `toml:"timeout_sec"`
		Env        map[string]string `toml:"env"`
	} `toml:"hook"`

	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text, json
		Stdout bool   `toml:"stdout"`
	} `toml:"logging"`

	Paths struct {
		StateDir   string `toml:"state_dir"`
		LogPath    string `toml:"log_path"`
		ModelsDir  string `toml:"models_dir"`
		ConfigPath string `toml:"-"`
	} `toml:"paths"`
}

// Default returns Config populated with defaults.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	// macOS prefers ~/Library/Application Support/ljbuild for state/logs
	if isMac() {
		stateDir = filepath.Join(home, "Library", "Application Support", "ljbuild")
	}

	cfg := &Config{}

	cfg.Output.Root = "data"
	cfg.Output.WavsDir = "wavs"
	cfg.Output.MetadataFile = "metadata.csv"
	cfg.Output.ManifestFormat = "quoted"
	cfg.Output.OnDuplicate = "error"
	cfg.Output.ProgressEvery = DefaultProgressEvery

	cfg.Dataset.Source = "hub"
	cfg.Dataset.Name = "ylacombe/english_dialects"
	cfg.Dataset.Subset = "southern_male"
	cfg.Dataset.Split = "all"
	cfg.Dataset.HubURL = defaultHubURL
	cfg.Dataset.PageSize = defaultPageSize
	cfg.Dataset.Query = defaultMySQLQuery
	cfg.Dataset.IDColumn = "line_id"
	cfg.Dataset.TextColumn = "text"
	cfg.Dataset.AudioColumn = "audio"

	cfg.Media.FFmpeg = "ffmpeg"
	cfg.Media.FFprobe = "ffprobe"
	cfg.Media.BatchSize = DefaultBatchSize
	cfg.Media.VADAggressiveness = 2

	cfg.ASR.Backend = "whisper"
	cfg.ASR.ModelPath = filepath.Join(stateDir, "models", defaultModelName)
	cfg.ASR.Language = DefaultLanguage
	cfg.ASR.OpenAIBaseURL = "https://api.openai.com/v1"
	cfg.ASR.OpenAIModel = "whisper-1"

	cfg.Hook.TimeoutSec = 300
	cfg.Hook.Env = map[string]string{}

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Logging.Stdout = true

	cfg.Paths.StateDir = stateDir
	cfg.Paths.LogPath = filepath.Join(stateDir, "ljbuild.log")
	cfg.Paths.ModelsDir = filepath.Join(stateDir, "models")

	return cfg, nil
}

// Load loads config from file, applying defaults, .env and env overrides.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, defaultConfigDir, "config.toml")
	}

	if err := loadDotenv(".env"); err != nil {
		return nil, err
	}

	// Read if exists; otherwise write template.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := Save(cfg, path); err != nil {
				return nil, err
			}
			cfg.Paths.ConfigPath = path
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Paths.ConfigPath = path
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// Validate rejects option values the pipelines do not understand.
func (c *Config) Validate() error {
	if _, err := manifest.ParseFormat(c.Output.ManifestFormat); err != nil {
		return fmt.Errorf("output.manifest_format must be quoted or ljspeech (got %q)", c.Output.ManifestFormat)
	}
	switch c.Output.OnDuplicate {
	case "error", "skip", "overwrite":
	default:
		return fmt.Errorf("output.on_duplicate must be error, skip or overwrite (got %q)", c.Output.OnDuplicate)
	}
	if strings.TrimSpace(c.Output.Name) == "" {
		return fmt.Errorf("output.name is empty; pass --name")
	}
	if c.Output.ProgressEvery < 0 {
		return fmt.Errorf("output.progress_every must not be negative (got %d)", c.Output.ProgressEvery)
	}
	if c.Media.BatchSize < 1 {
		return fmt.Errorf("media.batch_size must be positive (got %d)", c.Media.BatchSize)
	}
	return nil
}

// DatasetDir is <output.root>/<output.name>.
func (c *Config) DatasetDir() string {
	return filepath.Join(c.Output.Root, c.Output.Name)
}

func isMac() bool {
	return runtime.GOOS == "darwin"
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg *Config) error {
	for _, p := range []string{cfg.Paths.StateDir, filepath.Dir(cfg.Paths.LogPath), cfg.Paths.ModelsDir} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LJBUILD_OUTPUT_ROOT"); v != "" {
		cfg.Output.Root = v
	}
	if v := os.Getenv("LJBUILD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LJBUILD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LJBUILD_ASR_MODEL"); v != "" {
		cfg.ASR.ModelPath = v
	}
	if v := os.Getenv("LJBUILD_ASR_LANGUAGE"); v != "" {
		cfg.ASR.Language = v
	}
	if v := os.Getenv("LJBUILD_DATASET_DSN"); v != "" {
		cfg.Dataset.DSN = v
	}
	if v := os.Getenv("HF_TOKEN"); v != "" && cfg.Dataset.Token == "" {
		cfg.Dataset.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.ASR.OpenAIKey == "" {
		cfg.ASR.OpenAIKey = v
	}
	if v := os.Getenv("LJBUILD_SKIP_SILENT"); v != "" {
		cfg.Media.SkipSilent = v != "0" && strings.ToLower(v) != "false"
	}
}
