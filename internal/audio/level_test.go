package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func sineS16LE(amplitude float64, samples int) []byte {
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(amplitude * math.Sin(2*math.Pi*float64(i)/64))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

func TestMeter_SilenceVersusTone(t *testing.T) {
	m := NewMeter(4)
	m.Feed(make([]byte, 2048))
	silent := m.Level()

	m2 := NewMeter(4)
	m2.Feed(sineS16LE(8000, 1024))
	loud := m2.Level()

	if silent != 0 {
		t.Fatalf("expected zero level for silence, got %f", silent)
	}
	if loud < 1000 {
		t.Fatalf("expected high level for tone, got %f", loud)
	}
}

func TestMeter_WindowSmoothing(t *testing.T) {
	m := NewMeter(2)
	m.Feed(sineS16LE(8000, 1024))
	m.Feed(make([]byte, 2048))
	m.Feed(make([]byte, 2048))
	// Window holds only the last two silent frames.
	if lvl := m.Level(); lvl != 0 {
		t.Fatalf("expected tone to age out of the window, got %f", lvl)
	}
}

func TestMute(t *testing.T) {
	p := sineS16LE(8000, 64)
	Mute(p)
	for i, b := range p {
		if b != 0 {
			t.Fatalf("byte %d not muted", i)
		}
	}
}
