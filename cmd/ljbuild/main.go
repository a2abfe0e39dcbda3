package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ljbuild/internal/control"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:   "ljbuild",
		Short: "ljbuild — LJSpeech corpus builder",
		Long: `ljbuild turns speech sources into an LJSpeech-style corpus: wavs/<id>.wav plus a
pipe-delimited metadata.csv (id|text|text).

Key commands:
  dataset                   Re-encode pre-segmented rows (hub, jsonl, librispeech, mysql)
  media <file>              Transcribe one recording and slice it at segment boundaries
  doctor|setup              Check ffmpeg/model / download default model
  models list|download|set  Manage whisper.cpp models
  tail-log                  Show the end of the log

Notable env:
  LJBUILD_OUTPUT_ROOT, LJBUILD_LOG_LEVEL/FORMAT, LJBUILD_ASR_MODEL,
  LJBUILD_ASR_LANGUAGE, LJBUILD_DATASET_DSN, HF_TOKEN, OPENAI_API_KEY`,
		Example: `  ljbuild dataset --hub-dataset ylacombe/english_dialects --hub-config southern_male --name british_south
  ljbuild dataset --source librispeech --path ./LibriSpeech/dev-clean
  ljbuild media talk.mp4 --name stephen-fry
  ljbuild media talk.mp4 --backend openai
  ljbuild models download ggml-large-v3-turbo-q8_0.bin`,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
	}

	root.Version = version
	root.SetVersionTemplate("ljbuild v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML). Defaults to ~/.config/ljbuild/config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(control.NewDatasetCmd(cfgPath))
	root.AddCommand(control.NewMediaCmd(cfgPath))
	root.AddCommand(control.NewDoctorCmd(cfgPath))
	root.AddCommand(control.NewSetupCmd(cfgPath))
	root.AddCommand(control.NewModelsCmd(cfgPath))
	root.AddCommand(control.NewTailLogCmd(cfgPath))

	applyColorHelp(root)

	return root.Execute()
}

func applyColorHelp(root *cobra.Command) {
	const (
		boldBlue = "\033[1;34m"
		green    = "\033[32m"
		bold     = "\033[1m"
		dim      = "\033[2m"
		reset    = "\033[0m"
	)
	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			defaultHelp(cmd, args)
			return
		}
		out := cmd.OutOrStdout()
		write := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }
		writeln := func(line string) { _, _ = fmt.Fprintln(out, line) }

		write("%sljbuild%s — LJSpeech corpus builder %s(v%s)%s\n", boldBlue, reset, dim, version, reset)
		write("%sWrites wavs/<id>.wav and metadata.csv from datasets or long recordings.%s\n\n", dim, reset)

		write("%sUsage%s\n", bold, reset)
		write("  ljbuild [command] [flags]\n\n")

		write("%sKey commands%s\n", bold, reset)
		writeln("  dataset                     re-encode dataset rows (hub, jsonl, librispeech, mysql)")
		writeln("  media <file>                transcribe + slice one recording")
		writeln("  doctor                      check ffmpeg/ffprobe/model/config")
		writeln("  setup                       download the configured whisper model")
		writeln("  models list|download|set    manage whisper.cpp models")
		writeln("  tail-log                    show last log lines")
		writeln("")

		write("%sNotable flags & env%s\n", bold, reset)
		writeln("  -c, --config <path>     config file (default ~/.config/ljbuild/config.toml)")
		writeln("  --format quoted|ljspeech  manifest quoting (default quoted)")
		writeln("  Env: LJBUILD_OUTPUT_ROOT=dir, LJBUILD_LOG_LEVEL=debug,")
		writeln("       LJBUILD_LOG_FORMAT=json, HF_TOKEN=..., OPENAI_API_KEY=...")
		writeln("")

		write("%sExamples%s\n", bold, reset)
		writeln("  ljbuild dataset --hub-config southern_male --name british_south")
		writeln("  ljbuild dataset --source jsonl --path rows.jsonl")
		writeln("  ljbuild media talk.mp4 --name stephen-fry")
		writeln("  ljbuild models download ggml-large-v3-turbo-q8_0.bin")
		writeln("")

		write("%sCommands%s\n", bold, reset)
		for _, c := range cmd.Commands() {
			if c.Hidden {
				continue
			}
			write("  %s%-15s%s %s\n", green, c.Name(), reset, c.Short)
		}
	})
}
