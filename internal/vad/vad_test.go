package vad

import "testing"

func TestNewRejectsBadParams(t *testing.T) {
	if _, err := New(44100, 2); err == nil {
		t.Fatalf("expected error for 44.1kHz")
	}
	if _, err := New(16000, 7); err == nil {
		t.Fatalf("expected error for aggressiveness 7")
	}
}

func TestSilenceIsNotVoiced(t *testing.T) {
	d, err := New(16000, 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	voiced, err := d.Voiced(make([]float32, 16000))
	if err != nil {
		t.Fatalf("voiced: %v", err)
	}
	if voiced {
		t.Fatalf("digital silence reported as speech")
	}
}

func TestShortSpanCountsAsVoiced(t *testing.T) {
	d, err := New(16000, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	voiced, err := d.Voiced(make([]float32, 100))
	if err != nil || !voiced {
		t.Fatalf("short span voiced=%v err=%v", voiced, err)
	}
}
