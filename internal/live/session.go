package live

import (
	"strings"

	"google.golang.org/genai"
)

// ServerMessage is a decoded chunk of model output. Audio carries raw PCM at
// the model's output rate; Text carries any textual parts of the turn.
type ServerMessage struct {
	Audio        []byte
	Text         string
	TurnComplete bool
	Interrupted  bool
}

// Session is the minimal surface the loop needs from a live connection.
// Framing, transport and interruption detection stay inside the SDK.
type Session interface {
	// SendMedia enqueues a realtime input payload (audio chunk or frame).
	SendMedia(mimeType string, data []byte) error
	// SendText submits a user text turn; the model responds immediately.
	SendText(text string) error
	// Receive blocks for the next server message. Returns an error when the
	// session ends.
	Receive() (*ServerMessage, error)
	Close() error
}

type liveSession struct {
	s *genai.Session
}

func (ls *liveSession) SendMedia(mimeType string, data []byte) error {
	return ls.s.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{MIMEType: mimeType, Data: data},
	})
}

func (ls *liveSession) SendText(text string) error {
	if strings.TrimSpace(text) == "" {
		text = "."
	}
	return ls.s.SendClientContent(genai.LiveClientContentInput{
		Turns: []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}},
		},
		TurnComplete: genai.Ptr(true),
	})
}

func (ls *liveSession) Receive() (*ServerMessage, error) {
	for {
		msg, err := ls.s.Receive()
		if err != nil {
			return nil, err
		}
		if out, ok := decodeServerMessage(msg); ok {
			return out, nil
		}
		// Setup acks, tool traffic and usage metadata carry nothing for
		// playback; keep reading.
	}
}

func (ls *liveSession) Close() error {
	return ls.s.Close()
}

// decodeServerMessage flattens a live server message into audio bytes, text
// and turn flags. Returns false when the message carries no server content.
func decodeServerMessage(msg *genai.LiveServerMessage) (*ServerMessage, bool) {
	sc := msg.ServerContent
	if sc == nil {
		return nil, false
	}
	out := &ServerMessage{
		TurnComplete: sc.TurnComplete,
		Interrupted:  sc.Interrupted,
	}
	if sc.ModelTurn != nil {
		var text strings.Builder
		for _, p := range sc.ModelTurn.Parts {
			if p == nil {
				continue
			}
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				out.Audio = append(out.Audio, p.InlineData.Data...)
			}
			if p.Text != "" {
				text.WriteString(p.Text)
			}
		}
		out.Text = text.String()
	}
	return out, true
}
