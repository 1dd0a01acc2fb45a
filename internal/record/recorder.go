// Package record captures model audio for a session and persists it as WAV,
// optionally uploading the result to object storage.
package record

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/murli1234/Gemini-live-cam/internal/audio"
)

// Recorder accumulates synthesized audio for one session.
type Recorder struct {
	mu        sync.Mutex
	pcm       []byte
	dir       string
	storage   Storage
	sessionID string
	finished  bool
}

// New creates a recorder writing into dir. storage may be nil to keep
// recordings local only.
func New(dir, sessionID string, storage Storage) *Recorder {
	return &Recorder{dir: dir, storage: storage, sessionID: sessionID}
}

// Append adds played audio to the recording. No-op after Finish.
func (r *Recorder) Append(pcm []byte) {
	r.mu.Lock()
	if !r.finished {
		r.pcm = append(r.pcm, pcm...)
	}
	r.mu.Unlock()
}

// Finish writes the WAV file and uploads it when storage is configured.
// Safe to call once; empty sessions produce no file.
func (r *Recorder) Finish(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return "", nil
	}
	r.finished = true
	pcm := r.pcm
	r.pcm = nil
	r.mu.Unlock()

	if len(pcm) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create record dir: %w", err)
	}

	name := fmt.Sprintf("session-%s-%s.wav", r.sessionID, time.Now().Format("20060102-150405"))
	local := filepath.Join(r.dir, name)
	wav := audio.WAVEncode(pcm, audio.ReceiveSampleRate, audio.Channels)
	if err := os.WriteFile(local, wav, 0o644); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	log.Infof("recording saved: %s (%.1fs)", local, float64(len(pcm))/float64(audio.ReceiveSampleRate*2))

	if r.storage != nil {
		// Objects land under a per-session prefix in the bucket.
		key := path.Join(r.sessionID, name)
		if err := r.storage.Upload(ctx, key, "audio/wav", wav); err != nil {
			// Keep the local file even when the upload fails.
			log.Errorf("recording upload failed: %v", err)
		} else {
			log.Infof("recording uploaded: %s", key)
		}
	}
	return local, nil
}
