// Package manifest accumulates utterance entries and serializes them as an
// LJSpeech metadata file.
package manifest

import (
	"fmt"
	"io"
	"strings"
)

// Delimiter separates manifest columns.
const Delimiter = '|'

// Format selects how entries are serialized.
type Format string

const (
	// Quoted wraps fields holding the delimiter or a line break in double
	// quotes, doubling any quotes inside them. Every other field, including
	// text with quotes or leading spaces, is written as LJSpeech writes it.
	Quoted Format = "quoted"
	// LJSpeech joins fields verbatim. Delimiters inside text corrupt the row.
	LJSpeech Format = "ljspeech"
)

// ParseFormat maps a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case Quoted, "":
		return Quoted, nil
	case LJSpeech:
		return LJSpeech, nil
	}
	return "", fmt.Errorf("unknown manifest format %q", s)
}

// Entry is one manifest row.
type Entry struct {
	ID      string
	Text    string // normalized transcript column
	RawText string
}

func (e Entry) fields() []string {
	return []string{e.ID, e.Text, e.RawText}
}

// Accumulator collects entries in insertion order.
type Accumulator struct {
	entries []Entry
	seen    map[string]int
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]int)}
}

// Add appends e. Duplicate ids are appended too; callers decide policy via Has.
func (a *Accumulator) Add(e Entry) {
	a.entries = append(a.entries, e)
	a.seen[e.ID]++
}

// Has reports whether an entry with id was added.
func (a *Accumulator) Has(id string) bool {
	return a.seen[id] > 0
}

// Len returns the number of entries.
func (a *Accumulator) Len() int {
	return len(a.entries)
}

// Entries returns a copy of the entries in insertion order.
func (a *Accumulator) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Unsafe lists ids whose fields would break the unquoted LJSpeech layout.
func (a *Accumulator) Unsafe() []string {
	var ids []string
	for _, e := range a.entries {
		for _, f := range e.fields() {
			if needsQuotes(f) {
				ids = append(ids, e.ID)
				break
			}
		}
	}
	return ids
}

// Encode writes every entry, newline separated, without a trailing newline.
func (a *Accumulator) Encode(w io.Writer, f Format) error {
	switch f {
	case LJSpeech:
		lines := make([]string, len(a.entries))
		for i, e := range a.entries {
			lines[i] = strings.Join(e.fields(), string(Delimiter))
		}
		_, err := io.WriteString(w, strings.Join(lines, "\n"))
		return err
	case Quoted:
		lines := make([]string, len(a.entries))
		for i, e := range a.entries {
			fields := e.fields()
			for j, field := range fields {
				fields[j] = quoteField(field)
			}
			lines[i] = strings.Join(fields, string(Delimiter))
		}
		_, err := io.WriteString(w, strings.Join(lines, "\n"))
		return err
	}
	return fmt.Errorf("unknown manifest format %q", f)
}

func quoteField(s string) string {
	if !needsQuotes(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func needsQuotes(s string) bool {
	return strings.ContainsAny(s, "|\r\n")
}
