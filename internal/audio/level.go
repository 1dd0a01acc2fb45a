package audio

import (
	"math"
	"sync"
)

// Meter tracks smoothed RMS energy of s16le audio, for the status endpoint
// and the playback echo guard.
type Meter struct {
	mu      sync.Mutex
	smoothN int
	win     []float64
}

// NewMeter creates a meter averaging over the last n frames.
func NewMeter(n int) *Meter {
	if n < 1 {
		n = 1
	}
	return &Meter{smoothN: n}
}

// Feed computes the RMS of one frame and folds it into the window.
func (m *Meter) Feed(pcm []byte) {
	rms := rmsS16LE(pcm)
	m.mu.Lock()
	m.win = append(m.win, rms)
	if len(m.win) > m.smoothN {
		m.win = m.win[len(m.win)-m.smoothN:]
	}
	m.mu.Unlock()
}

// Level returns the windowed average RMS. Zero means silence.
func (m *Meter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.win) == 0 {
		return 0
	}
	var sum float64
	for _, v := range m.win {
		sum += v
	}
	return sum / float64(len(m.win))
}

func rmsS16LE(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// Mute zeroes a PCM chunk in place. The chunk still flows upstream so the
// session keeps receiving a continuous audio timeline.
func Mute(pcm []byte) {
	for i := range pcm {
		pcm[i] = 0
	}
}
