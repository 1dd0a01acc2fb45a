package live

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Client wraps the genai client for opening live sessions.
type Client struct {
	genai *genai.Client
	model string
	voice string
}

// NewClient builds a Gemini client against the v1alpha API surface, which
// carries the live endpoints.
func NewClient(ctx context.Context, apiKey, model, voice string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key missing")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1alpha"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{genai: c, model: model, voice: voice}, nil
}

// Connect opens a live session. The model answers with audio only, speaking
// with the configured prebuilt voice, and may use Google Search as a tool.
func (c *Client) Connect(ctx context.Context) (Session, error) {
	cfg := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	s, err := c.genai.Live.Connect(ctx, c.model, cfg)
	if err != nil {
		return nil, fmt.Errorf("live connect: %w", err)
	}
	return &liveSession{s: s}, nil
}
