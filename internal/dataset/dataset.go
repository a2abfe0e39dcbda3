// Package dataset reads pre-segmented (id, audio, transcript) rows from a
// dataset hub, a local export, a LibriSpeech tree or an audio-labeler
// database.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"ljbuild/internal/config"
	"ljbuild/internal/pipeline"
)

// Source kinds accepted in dataset.source.
const (
	KindHub         = "hub"
	KindJSONL       = "jsonl"
	KindLibriSpeech = "librispeech"
	KindMySQL       = "mysql"
)

// Columns names the row fields that hold the utterance.
type Columns struct {
	ID    string
	Text  string
	Audio string
}

func columnsFrom(cfg *config.Config) Columns {
	c := Columns{ID: cfg.Dataset.IDColumn, Text: cfg.Dataset.TextColumn, Audio: cfg.Dataset.AudioColumn}
	if c.ID == "" {
		c.ID = "line_id"
	}
	if c.Text == "" {
		c.Text = "text"
	}
	if c.Audio == "" {
		c.Audio = "audio"
	}
	return c
}

// Open builds the source selected by cfg.Dataset.Source.
func Open(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (pipeline.Source, error) {
	cols := columnsFrom(cfg)
	switch strings.ToLower(cfg.Dataset.Source) {
	case KindHub, "":
		return NewHub(HubOptions{
			BaseURL:  cfg.Dataset.HubURL,
			Dataset:  cfg.Dataset.Name,
			Subset:   cfg.Dataset.Subset,
			Split:    cfg.Dataset.Split,
			Token:    cfg.Dataset.Token,
			PageSize: cfg.Dataset.PageSize,
			Columns:  cols,
		}, logger), nil
	case KindJSONL:
		return OpenJSONL(cfg.Dataset.Path, cols)
	case KindLibriSpeech:
		return OpenLibriSpeech(cfg.Dataset.Path)
	case KindMySQL:
		return OpenMySQL(ctx, cfg.Dataset.DSN, cfg.Dataset.Query)
	}
	return nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
}

// row is one decoded dataset row keyed by column.
type row map[string]json.RawMessage

func (r row) text(col string) (string, error) {
	raw, ok := r[col]
	if !ok {
		return "", fmt.Errorf("missing column %q", col)
	}
	return cellString(raw)
}

// cellString renders a scalar cell; numeric ids are kept in their JSON form.
func cellString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("cell %s is not a scalar", truncate(string(raw), 40))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
