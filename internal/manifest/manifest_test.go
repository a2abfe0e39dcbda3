package manifest

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
)

func entry(id, text string) Entry {
	return Entry{ID: id, Text: text, RawText: text}
}

func encode(t *testing.T, a *Accumulator, f Format) string {
	t.Helper()
	var buf bytes.Buffer
	if err := a.Encode(&buf, f); err != nil {
		t.Fatalf("encode %s: %v", f, err)
	}
	return buf.String()
}

func TestEncodeTwoRows(t *testing.T) {
	a := NewAccumulator()
	a.Add(entry("utt_001", "hello world"))
	a.Add(entry("utt_002", "goodbye"))

	want := "utt_001|hello world|hello world\nutt_002|goodbye|goodbye"
	for _, f := range []Format{LJSpeech, Quoted} {
		if got := encode(t, a, f); got != want {
			t.Fatalf("%s: got %q want %q", f, got, want)
		}
	}
}

func TestEncodeKeepsInsertionOrder(t *testing.T) {
	a := NewAccumulator()
	for _, id := range []string{"c", "a", "b"} {
		a.Add(entry(id, "x"))
	}
	got := encode(t, a, LJSpeech)
	if got != "c|x|x\na|x|x\nb|x|x" {
		t.Fatalf("order not preserved: %q", got)
	}
	ids := []string{}
	for _, e := range a.Entries() {
		ids = append(ids, e.ID)
	}
	if strings.Join(ids, ",") != "c,a,b" {
		t.Fatalf("Entries order = %v", ids)
	}
}

func TestEncodeEmpty(t *testing.T) {
	a := NewAccumulator()
	for _, f := range []Format{LJSpeech, Quoted} {
		if got := encode(t, a, f); got != "" {
			t.Fatalf("%s: expected empty manifest, got %q", f, got)
		}
	}
}

func TestQuotedProtectsDelimiters(t *testing.T) {
	a := NewAccumulator()
	a.Add(entry("u1", "left|right"))
	a.Add(entry("u2", "line one\nline two"))
	a.Add(entry("u3", "plain"))

	got := encode(t, a, Quoted)
	r := csv.NewReader(strings.NewReader(got))
	r.Comma = Delimiter
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("quoted manifest not parseable: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][1] != "left|right" || rows[1][2] != "line one\nline two" || rows[2][0] != "u3" {
		t.Fatalf("fields not recovered: %q", rows)
	}
}

func TestQuotedLeavesOrdinaryPunctuation(t *testing.T) {
	a := NewAccumulator()
	a.Add(entry("u1", `He said "hello" to me`))
	a.Add(entry("u2", " leading space"))
	a.Add(entry("u3", `say "a|b"`))

	got := encode(t, a, Quoted)
	want := `u1|He said "hello" to me|He said "hello" to me` + "\n" +
		"u2| leading space| leading space\n" +
		`u3|"say ""a|b"""|"say ""a|b"""`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	lj := encode(t, a, LJSpeech)
	if !strings.HasPrefix(got, strings.Join(strings.Split(lj, "\n")[:2], "\n")) {
		t.Fatalf("rows without delimiters differ from ljspeech: %q vs %q", got, lj)
	}
}

func TestUnsafeReportsBrokenRows(t *testing.T) {
	a := NewAccumulator()
	a.Add(entry("ok", "fine"))
	a.Add(entry("pipe", "a|b"))
	a.Add(entry("nl", "a\nb"))
	got := a.Unsafe()
	if strings.Join(got, ",") != "pipe,nl" {
		t.Fatalf("Unsafe() = %v", got)
	}
}

func TestHasAndDuplicates(t *testing.T) {
	a := NewAccumulator()
	if a.Has("x") {
		t.Fatalf("empty accumulator reports id")
	}
	a.Add(entry("x", "1"))
	a.Add(entry("x", "2"))
	if !a.Has("x") || a.Len() != 2 {
		t.Fatalf("expected both rows kept, len=%d", a.Len())
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": Quoted, "quoted": Quoted, "LJSpeech": LJSpeech}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("tsv"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
