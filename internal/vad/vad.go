// Package vad flags audio spans that contain no speech.
package vad

import (
	"encoding/binary"
	"fmt"
	"math"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// FrameMS is the analysis window handed to the detector.
const FrameMS = 30

// Detector wraps a WebRTC voice activity detector at a fixed rate.
type Detector struct {
	v     *webrtcvad.VAD
	rate  int
	frame int
	buf   []byte
}

// New returns a detector for mono samples at rate with aggressiveness 0-3.
func New(rate, aggressiveness int) (*Detector, error) {
	frame := rate * FrameMS / 1000
	if !webrtcvad.ValidRateAndFrameLength(rate, frame) {
		return nil, fmt.Errorf("vad: unsupported sample rate %d", rate)
	}
	if aggressiveness < 0 || aggressiveness > 3 {
		return nil, fmt.Errorf("vad: aggressiveness must be 0-3 (got %d)", aggressiveness)
	}
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(aggressiveness); err != nil {
		return nil, fmt.Errorf("vad mode: %w", err)
	}
	return &Detector{v: v, rate: rate, frame: frame, buf: make([]byte, frame*2)}, nil
}

// Voiced reports whether any full frame of samples contains speech. Spans
// shorter than one frame are treated as voiced.
func (d *Detector) Voiced(samples []float32) (bool, error) {
	if len(samples) < d.frame {
		return true, nil
	}
	for off := 0; off+d.frame <= len(samples); off += d.frame {
		for i, s := range samples[off : off+d.frame] {
			v := math.Max(-32768, math.Min(32767, math.Round(float64(s)*32767)))
			binary.LittleEndian.PutUint16(d.buf[i*2:], uint16(int16(v)))
		}
		active, err := d.v.Process(d.rate, d.buf)
		if err != nil {
			return false, err
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}
