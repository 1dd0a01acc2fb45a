// Package app wires configuration, devices and the live client into runnable
// session loops for the CLI and the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/murli1234/Gemini-live-cam/internal/audio"
	"github.com/murli1234/Gemini-live-cam/internal/capture"
	"github.com/murli1234/Gemini-live-cam/internal/config"
	"github.com/murli1234/Gemini-live-cam/internal/httpserver"
	"github.com/murli1234/Gemini-live-cam/internal/live"
	"github.com/murli1234/Gemini-live-cam/internal/loop"
	"github.com/murli1234/Gemini-live-cam/internal/record"
)

// SessionRunner couples a loop with its optional recorder so the recording
// is finalized when the loop ends.
type SessionRunner struct {
	*loop.Loop
	rec *record.Recorder
}

func (r *SessionRunner) Run(ctx context.Context) error {
	err := r.Loop.Run(ctx)
	if r.rec != nil {
		// The run context is usually cancelled by now; give the upload its
		// own bounded one.
		upCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, ferr := r.rec.Finish(upCtx); ferr != nil {
			log.Errorf("finalize recording: %v", ferr)
		}
	}
	return err
}

// BuildRunner opens the devices for the given video mode and assembles a
// session loop. All devices opened so far are released on error.
func BuildRunner(ctx context.Context, cfg config.Config, mode string, onEvent func(loop.Event)) (*SessionRunner, error) {
	client, err := live.NewClient(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.Voice)
	if err != nil {
		return nil, err
	}

	mic, err := audio.OpenMic()
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	speaker, err := audio.OpenSpeaker()
	if err != nil {
		_ = mic.Close()
		return nil, fmt.Errorf("open speaker: %w", err)
	}

	var frames capture.FrameSource
	switch mode {
	case "camera":
		frames, err = capture.OpenCamera(cfg.CameraDevice)
	case "screen":
		frames, err = capture.OpenScreen()
	case "none":
		// audio-only session
	default:
		err = fmt.Errorf("unknown video mode %q", mode)
	}
	if err != nil {
		_ = mic.Close()
		_ = speaker.Close()
		return nil, err
	}

	var rec *record.Recorder
	if cfg.RecordDir != "" {
		var storage record.Storage
		if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
			storage = record.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
		}
		rec = record.New(cfg.RecordDir, uuid.NewString()[:8], storage)
	}

	l, err := loop.New(loop.Options{
		Mode:          mode,
		Connect:       client.Connect,
		Audio:         mic,
		Player:        speaker,
		Frames:        frames,
		FrameInterval: cfg.FrameInterval,
		EchoGuard:     cfg.MicMuteOnPlayback,
		Recorder:      recorderOrNil(rec),
		OnEvent:       onEvent,
	})
	if err != nil {
		_ = mic.Close()
		_ = speaker.Close()
		if frames != nil {
			_ = frames.Close()
		}
		return nil, err
	}
	return &SessionRunner{Loop: l, rec: rec}, nil
}

// Factory adapts BuildRunner for the HTTP server's session manager.
func Factory(cfg config.Config) httpserver.Factory {
	return func(mode string, onEvent func(loop.Event)) (httpserver.Runner, error) {
		return BuildRunner(context.Background(), cfg, mode, onEvent)
	}
}

// recorderOrNil avoids storing a typed nil in the loop's Recorder interface.
func recorderOrNil(r *record.Recorder) loop.Recorder {
	if r == nil {
		return nil
	}
	return r
}
