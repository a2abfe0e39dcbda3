package control

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ljbuild/internal/config"
	"ljbuild/internal/corpus"
	"ljbuild/internal/hook"
	"ljbuild/internal/logging"
	"ljbuild/internal/manifest"
	"ljbuild/internal/pipeline"
	"ljbuild/internal/wave"
)

// buildRun carries what every corpus build needs.
type buildRun struct {
	cfg    *config.Config
	logger logrus.FieldLogger
	runID  string
	source string
}

func newBuildRun(cfg *config.Config, source string) (*buildRun, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.Configure(cfg)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return &buildRun{
		cfg:    cfg,
		logger: logger.WithFields(logrus.Fields{"run_id": runID, "pipeline": source}),
		runID:  runID,
		source: source,
	}, nil
}

func (b *buildRun) layout() corpus.Layout {
	l := corpus.NewLayout(b.cfg.DatasetDir())
	if b.cfg.Output.WavsDir != "" {
		l.WavsDir = b.cfg.Output.WavsDir
	}
	if b.cfg.Output.MetadataFile != "" {
		l.MetadataFile = b.cfg.Output.MetadataFile
	}
	return l
}

// execute runs src to completion, then writes the card and fires the hook.
func (b *buildRun) execute(ctx context.Context, src pipeline.Source) (pipeline.Stats, error) {
	defer src.Close()
	format, err := manifest.ParseFormat(b.cfg.Output.ManifestFormat)
	if err != nil {
		return pipeline.Stats{}, err
	}
	policy, err := pipeline.ParseDuplicatePolicy(b.cfg.Output.OnDuplicate)
	if err != nil {
		return pipeline.Stats{}, err
	}
	layout := b.layout()
	w := corpus.NewWriter(layout)
	acc := manifest.NewAccumulator()
	b.logger.WithField("dir", layout.Dir).Info("building corpus")

	st, err := pipeline.Run(ctx, src, w, acc, pipeline.Options{
		OnDuplicate:   policy,
		Format:        format,
		ProgressEvery: b.cfg.Output.ProgressEvery,
	}, b.logger)
	if err != nil {
		return st, err
	}
	if b.cfg.Output.WriteCard {
		if err := w.WriteCard(b.card(layout, acc, st, format)); err != nil {
			return st, fmt.Errorf("write card: %w", err)
		}
	}
	r := hook.NewRunner(b.cfg, b.logger)
	if r.Enabled() {
		job := hook.Job{
			DatasetDir: layout.Dir,
			Metadata:   layout.MetadataPath(),
			Utterances: st.Written,
			RunID:      b.runID,
		}
		if err := r.Run(ctx, job); err != nil {
			return st, err
		}
	}
	return st, nil
}

// card summarizes the written files by probing their headers.
func (b *buildRun) card(layout corpus.Layout, acc *manifest.Accumulator, st pipeline.Stats, format manifest.Format) corpus.Card {
	rates := map[int]bool{}
	subtypes := map[string]bool{}
	seen := map[string]bool{}
	for _, e := range acc.Entries() {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		f, err := os.Open(layout.UtterancePath(e.ID))
		if err != nil {
			continue
		}
		wf, err := wave.Probe(f)
		_ = f.Close()
		if err != nil {
			continue
		}
		rates[wf.SampleRate] = true
		subtypes[wf.Subtype.String()] = true
	}
	card := corpus.Card{
		Name:           b.cfg.Output.Name,
		Format:         "ljspeech",
		Source:         b.source,
		Utterances:     st.Written,
		TotalSeconds:   st.Audio.Seconds(),
		Manifest:       layout.MetadataFile,
		ManifestFormat: string(format),
		RunID:          b.runID,
		BuiltAt:        time.Now().UTC(),
	}
	if b.source == "media" {
		card.Language = b.cfg.ASR.Language
	}
	for r := range rates {
		card.SampleRates = append(card.SampleRates, r)
	}
	sort.Ints(card.SampleRates)
	for s := range subtypes {
		card.Subtypes = append(card.Subtypes, s)
	}
	sort.Strings(card.Subtypes)
	return card
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
