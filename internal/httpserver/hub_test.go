package httpserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/murli1234/Gemini-live-cam/internal/loop"
)

func TestHub_DeliversEventsOverWebsocket(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Echo)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the server a moment to register the subscriber.
	time.Sleep(20 * time.Millisecond)
	s.hub.PublishEvent(loop.Event{Kind: loop.EventText, Text: "hello", At: time.Now()})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got loop.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if got.Kind != loop.EventText || got.Text != "hello" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// Overflow the subscriber buffer; publishes must not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.PublishEvent(loop.Event{Kind: loop.EventStatus, Text: "tick"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on slow subscriber")
	}
}
