package control

import (
	"fmt"

	"github.com/spf13/cobra"

	"ljbuild/internal/config"
	"ljbuild/internal/dataset"
)

// NewDatasetCmd builds a corpus from pre-segmented dataset rows.
func NewDatasetCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Build a corpus from dataset rows (hub, jsonl, librispeech, mysql)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			applyDatasetFlags(cmd, cfg)

			b, err := newBuildRun(cfg, "dataset:"+cfg.Dataset.Source)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			src, err := dataset.Open(ctx, cfg, b.logger)
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
	cmd.Flags().String("name", "", "output dataset name (default: subset, or path stem)")
	cmd.Flags().String("source", "", "hub, jsonl, librispeech or mysql")
	cmd.Flags().String("hub-dataset", "", "hub dataset id, e.g. ylacombe/english_dialects")
	cmd.Flags().String("hub-config", "", "hub subset/config, e.g. southern_male")
	cmd.Flags().String("split", "", "split to read; \"all\" concatenates every split")
	cmd.Flags().String("path", "", "input path for jsonl/librispeech sources")
	cmd.Flags().String("format", "", "manifest format: quoted or ljspeech")
	return cmd
}

func applyDatasetFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("source"); v != "" {
		cfg.Dataset.Source = v
	}
	if v, _ := flags.GetString("hub-dataset"); v != "" {
		cfg.Dataset.Name = v
	}
	if v, _ := flags.GetString("hub-config"); v != "" {
		cfg.Dataset.Subset = v
	}
	if v, _ := flags.GetString("split"); v != "" {
		cfg.Dataset.Split = v
	}
	if v, _ := flags.GetString("path"); v != "" {
		cfg.Dataset.Path = v
	}
	if v, _ := flags.GetString("format"); v != "" {
		cfg.Output.ManifestFormat = v
	}
	if v, _ := flags.GetString("name"); v != "" {
		cfg.Output.Name = v
	}
	if cfg.Output.Name == "" {
		switch {
		case cfg.Dataset.Source == dataset.KindHub && cfg.Dataset.Subset != "":
			cfg.Output.Name = cfg.Dataset.Subset
		case cfg.Dataset.Path != "":
			cfg.Output.Name = stem(cfg.Dataset.Path)
		}
	}
}
