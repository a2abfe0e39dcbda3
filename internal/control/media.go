package control

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ljbuild/internal/asr"
	"ljbuild/internal/config"
	"ljbuild/internal/media"
)

// NewMediaCmd transcribes one recording and slices it into utterances.
func NewMediaCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media <file>",
		Short: "Build a corpus from one audio/video file via ASR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			file := args[0]
			if _, err := os.Stat(file); err != nil {
				return err
			}
			applyMediaFlags(cmd, cfg, file)

			b, err := newBuildRun(cfg, "media")
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			tr, err := asr.NewTranscriber(cfg, b.logger)
			if err != nil {
				return err
			}
			defer tr.Close()

			src, err := media.Open(ctx, file, tr, media.Options{
				Language:  cfg.ASR.Language,
				BatchSize: cfg.Media.BatchSize,
				FFprobe:   cfg.Media.FFprobe,
				Decoder: media.Decoder{
					FFmpeg:    cfg.Media.FFmpeg,
					ExtraArgs: cfg.Media.FFmpegArgs,
				},
				SkipSilent:        cfg.Media.SkipSilent,
				VADAggressiveness: cfg.Media.VADAggressiveness,
			}, b.logger)
			if err != nil {
				return err
			}
			st, err := b.execute(ctx, src)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d utterances to %s\n", st.Written, cfg.DatasetDir())
			return nil
		},
	}
	cmd.Flags().String("name", "", "output dataset name (default: file stem)")
	cmd.Flags().String("language", "", "ASR language (default from config, en)")
	cmd.Flags().String("backend", "", "ASR backend: whisper or openai")
	cmd.Flags().String("format", "", "manifest format: quoted or ljspeech")
	cmd.Flags().Bool("skip-silent", false, "drop segments without voiced frames")
	return cmd
}

func applyMediaFlags(cmd *cobra.Command, cfg *config.Config, file string) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("language"); v != "" {
		cfg.ASR.Language = v
	}
	if cfg.ASR.Language == "" {
		cfg.ASR.Language = config.DefaultLanguage
	}
	if v, _ := flags.GetString("backend"); v != "" {
		cfg.ASR.Backend = v
	}
	if v, _ := flags.GetString("format"); v != "" {
		cfg.Output.ManifestFormat = v
	}
	if v, _ := flags.GetBool("skip-silent"); v {
		cfg.Media.SkipSilent = true
	}
	if v, _ := flags.GetString("name"); v != "" {
		cfg.Output.Name = v
	}
	if cfg.Output.Name == "" {
		cfg.Output.Name = stem(file)
	}
}
