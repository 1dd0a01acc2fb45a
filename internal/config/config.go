package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds application configuration.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	Model        string `env:"GEMINI_MODEL" envDefault:"models/gemini-2.0-flash-live-001"`
	Voice        string `env:"GEMINI_VOICE" envDefault:"Leda"`

	HTTPAddress string `env:"HTTP_ADDRESS" envDefault:":8080"`

	// VideoMode selects the frame producer: camera, screen or none.
	VideoMode     string        `env:"VIDEO_MODE" envDefault:"camera"`
	CameraDevice  int           `env:"CAMERA_DEVICE" envDefault:"0"`
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"1s"`

	// MicMuteOnPlayback zeroes microphone chunks while the speaker is playing.
	// Useful on open speakers without acoustic echo cancellation.
	MicMuteOnPlayback bool `env:"MIC_MUTE_ON_PLAYBACK" envDefault:"false"`

	// Session recording is disabled unless RecordDir is set. Uploads happen
	// only when the Supabase variables are present as well.
	RecordDir          string `env:"RECORD_DIR"`
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseBucket     string `env:"SUPABASE_BUCKET" envDefault:"recordings"`
}

// Load reads a .env file if present, then parses environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	switch cfg.VideoMode {
	case "camera", "screen", "none":
	default:
		return Config{}, fmt.Errorf("invalid VIDEO_MODE %q (want camera, screen or none)", cfg.VideoMode)
	}

	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set - create a .env file with GEMINI_API_KEY=your_api_key_here")
	}

	log.Infof("config: HTTP_ADDRESS=%s VIDEO_MODE=%s MODEL=%s", cfg.HTTPAddress, cfg.VideoMode, cfg.Model)
	return cfg, nil
}
