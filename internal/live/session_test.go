package live

import (
	"testing"

	"google.golang.org/genai"
)

func TestDecodeServerMessage_AudioAndText(t *testing.T) {
	msg := &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{
				Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte{1, 2}}},
					{Text: "hello "},
					{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte{3, 4}}},
					{Text: "world"},
				},
			},
		},
	}

	out, ok := decodeServerMessage(msg)
	if !ok {
		t.Fatalf("expected server content to decode")
	}
	if got, want := string(out.Audio), string([]byte{1, 2, 3, 4}); got != want {
		t.Fatalf("audio not concatenated in order: %v", out.Audio)
	}
	if out.Text != "hello world" {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.TurnComplete || out.Interrupted {
		t.Fatalf("unexpected turn flags: %+v", out)
	}
}

func TestDecodeServerMessage_TurnFlags(t *testing.T) {
	msg := &genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{TurnComplete: true, Interrupted: true},
	}
	out, ok := decodeServerMessage(msg)
	if !ok {
		t.Fatalf("expected decode")
	}
	if !out.TurnComplete || !out.Interrupted {
		t.Fatalf("expected turn flags set, got %+v", out)
	}
	if len(out.Audio) != 0 || out.Text != "" {
		t.Fatalf("expected empty payload, got %+v", out)
	}
}

func TestDecodeServerMessage_NoContent(t *testing.T) {
	if _, ok := decodeServerMessage(&genai.LiveServerMessage{}); ok {
		t.Fatalf("expected setup-only message to be skipped")
	}
}
