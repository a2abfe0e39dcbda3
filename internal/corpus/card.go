package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const cardFile = "dataset.yaml"

// Card summarizes a finished build next to the manifest.
type Card struct {
	Name           string    `yaml:"name"`
	Format         string    `yaml:"format"`
	Source         string    `yaml:"source"`
	Language       string    `yaml:"language,omitempty"`
	Utterances     int       `yaml:"utterances"`
	TotalSeconds   float64   `yaml:"total_seconds"`
	SampleRates    []int     `yaml:"sample_rates"`
	Subtypes       []string  `yaml:"subtypes"`
	Manifest       string    `yaml:"manifest"`
	ManifestFormat string    `yaml:"manifest_format"`
	RunID          string    `yaml:"run_id"`
	BuiltAt        time.Time `yaml:"built_at"`
}

// WriteCard stores card as dataset.yaml in the dataset directory.
func (w *Writer) WriteCard(card Card) error {
	out, err := yaml.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	return os.WriteFile(filepath.Join(w.layout.Dir, cardFile), out, 0o644)
}

// ReadCard loads dataset.yaml from dir.
func ReadCard(dir string) (*Card, error) {
	data, err := os.ReadFile(filepath.Join(dir, cardFile))
	if err != nil {
		return nil, err
	}
	var card Card
	if err := yaml.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("parse card: %w", err)
	}
	return &card, nil
}
