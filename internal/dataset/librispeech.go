package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ljbuild/internal/pipeline"
)

const transSuffix = ".trans.txt"

type transLine struct {
	id   string
	text string
	wav  string
}

// LibriSpeech walks a tree of <chapter>.trans.txt files ("<id> <text>" per
// line) whose audio sits next to them as <id>.wav.
type LibriSpeech struct {
	transFiles []string
	pending    []transLine
}

// OpenLibriSpeech lists every transcript file under root in lexical order.
func OpenLibriSpeech(root string) (*LibriSpeech, error) {
	if root == "" {
		return nil, errors.New("dataset.path is required for the librispeech source")
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, transSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &LibriSpeech{transFiles: files}, nil
}

// Next implements pipeline.Source.
func (l *LibriSpeech) Next(ctx context.Context) (pipeline.Record, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Record{}, err
	}
	for len(l.pending) == 0 {
		if len(l.transFiles) == 0 {
			return pipeline.Record{}, io.EOF
		}
		lines, err := parseTransFile(l.transFiles[0])
		if err != nil {
			return pipeline.Record{}, err
		}
		l.transFiles = l.transFiles[1:]
		l.pending = lines
	}
	t := l.pending[0]
	l.pending = l.pending[1:]
	data, err := os.ReadFile(t.wav)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("%s: %w", t.id, err)
	}
	return pipeline.Record{ID: t.id, Transcript: t.text, Audio: pipeline.EncodedAudio{Data: data}}, nil
}

// Close implements pipeline.Source.
func (l *LibriSpeech) Close() error { return nil }

func parseTransFile(transPath string) ([]transLine, error) {
	f, err := os.Open(transPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir := filepath.Dir(transPath)
	var out []transLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, text, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%s: line %q has no transcript", transPath, line)
		}
		out = append(out, transLine{id: id, text: text, wav: filepath.Join(dir, id+".wav")})
	}
	return out, scanner.Err()
}
