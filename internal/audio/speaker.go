package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	log "github.com/sirupsen/logrus"
)

// Speaker plays model audio on the default output device. Playback starts on
// the first Write and can be flushed instantly when the model is
// interrupted.
type Speaker struct {
	otoCtx *oto.Context
	buf    *pcmBuffer

	mu      sync.Mutex
	player  *oto.Player
	playing bool
	closed  bool
}

// OpenSpeaker initializes the output device at the receive sample rate.
func OpenSpeaker() (*Speaker, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   ReceiveSampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
		// smaller lowers latency at the cost of glitches
		BufferSize: 100 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	<-ready

	log.Infof("speaker playing at %dHz", ReceiveSampleRate)
	return &Speaker{otoCtx: ctx, buf: newPCMBuffer(ReceiveSampleRate * 4)}, nil
}

// Write buffers PCM for playback, starting the player on first use.
func (s *Speaker) Write(pcm []byte) {
	s.buf.Write(pcm)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing && !s.closed {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
}

// Read implements io.Reader for the oto player, blocking until audio is
// buffered.
func (s *Speaker) Read(p []byte) (int, error) {
	n, err := s.buf.ReadSome(p)
	if err != nil {
		// Feed silence so oto drains gracefully after close.
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	return n, nil
}

// Playing reports whether audio is queued for the output device.
func (s *Speaker) Playing() bool {
	s.mu.Lock()
	playing := s.playing
	s.mu.Unlock()
	return playing && s.buf.Len() > 0
}

// Flush discards all pending audio and stops the current player so stale
// output never overlaps the next turn. Used when the model is interrupted.
func (s *Speaker) Flush() {
	s.buf.Reset()

	s.mu.Lock()
	player := s.player
	s.player = nil
	s.playing = false
	s.mu.Unlock()

	if player != nil {
		// Pause stops output immediately; Reset clears oto's internal buffer.
		player.Pause()
		player.Reset()
		player.Close()
	}
}

// Close releases the player. The oto context itself cannot be torn down and
// is left to the process.
func (s *Speaker) Close() error {
	s.mu.Lock()
	s.closed = true
	player := s.player
	s.player = nil
	s.playing = false
	s.mu.Unlock()

	s.buf.Close()
	if player != nil {
		player.Close()
	}
	return nil
}
