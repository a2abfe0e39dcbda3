package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ljbuild/internal/pipeline"
)

// jsonlAudio is the datasets export form of an audio cell.
type jsonlAudio struct {
	Bytes []byte `json:"bytes"`
	Path  string `json:"path"`
}

// JSONL reads one row per JSON value from a local export.
type JSONL struct {
	f    *os.File
	dec  *json.Decoder
	dir  string
	cols Columns
	line int
}

// OpenJSONL opens path for reading.
func OpenJSONL(path string, cols Columns) (*JSONL, error) {
	if path == "" {
		return nil, errors.New("dataset.path is required for the jsonl source")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &JSONL{f: f, dec: json.NewDecoder(f), dir: filepath.Dir(path), cols: cols}, nil
}

// Next implements pipeline.Source.
func (j *JSONL) Next(ctx context.Context) (pipeline.Record, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Record{}, err
	}
	var r row
	if err := j.dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return pipeline.Record{}, io.EOF
		}
		return pipeline.Record{}, fmt.Errorf("row %d: %w", j.line+1, err)
	}
	j.line++
	id, err := r.text(j.cols.ID)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("row %d: %w", j.line, err)
	}
	text, err := r.text(j.cols.Text)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("%s: %w", id, err)
	}
	data, err := j.audio(r[j.cols.Audio])
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("%s: %w", id, err)
	}
	return pipeline.Record{ID: id, Transcript: text, Audio: pipeline.EncodedAudio{Data: data}}, nil
}

func (j *JSONL) audio(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing column %q", j.cols.Audio)
	}
	var cell jsonlAudio
	if err := json.Unmarshal(raw, &cell); err != nil {
		var path string
		if json.Unmarshal(raw, &path) != nil {
			return nil, fmt.Errorf("audio cell: %w", err)
		}
		cell.Path = path
	}
	if len(cell.Bytes) > 0 {
		return cell.Bytes, nil
	}
	if cell.Path == "" {
		return nil, errors.New("audio cell has neither bytes nor path")
	}
	p := cell.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(j.dir, p)
	}
	return os.ReadFile(p)
}

// Close implements pipeline.Source.
func (j *JSONL) Close() error {
	return j.f.Close()
}
