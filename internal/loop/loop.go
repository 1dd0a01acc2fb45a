// Package loop wires capture devices and playback to a live model session.
// It owns no protocol logic: queues in, queues out, and a task group.
package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/murli1234/Gemini-live-cam/internal/audio"
	"github.com/murli1234/Gemini-live-cam/internal/capture"
	"github.com/murli1234/Gemini-live-cam/internal/live"
)

const (
	// outQueueSize bounds realtime input so slow sends backpressure capture.
	outQueueSize = 5
	// audioInQueueSize buffers synthesized audio awaiting playback.
	audioInQueueSize = 256
	// closeTimeout bounds how long Stop waits for the session to close.
	closeTimeout = 5 * time.Second
)

var (
	// ErrNotRunning is returned by operations that need an active session.
	ErrNotRunning = errors.New("session is not running")
	// ErrRunning is returned by Run when the loop is already active.
	ErrRunning = errors.New("session already running")
)

// Chunk is a realtime input payload bound for the live session.
type Chunk struct {
	MIMEType string
	Data     []byte
}

// AudioSource yields fixed-size microphone chunks. ReadChunk blocks; Close
// unblocks it.
type AudioSource interface {
	ReadChunk() ([]byte, error)
	Close() error
}

// Player consumes synthesized PCM for the speaker.
type Player interface {
	Write(pcm []byte)
	Flush()
	Playing() bool
	Close() error
}

// Recorder receives a copy of every played chunk.
type Recorder interface {
	Append(pcm []byte)
}

// EventKind classifies loop events for the control shells.
type EventKind string

const (
	EventText   EventKind = "text"
	EventStatus EventKind = "status"
)

// Event is surfaced to the UI layer (websocket fan-out, console).
type Event struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Options configures a Loop. Connect is required; device fields are nil for
// whatever the mode leaves out.
type Options struct {
	Mode          string
	Connect       func(ctx context.Context) (live.Session, error)
	Audio         AudioSource
	Player        Player
	Frames        capture.FrameSource
	FrameInterval time.Duration
	// EchoGuard mutes microphone chunks while the speaker is playing.
	EchoGuard bool
	Recorder  Recorder
	OnEvent   func(Event)
}

// Status is a point-in-time snapshot for the HTTP shell.
type Status struct {
	Running   bool      `json:"running"`
	Mode      string    `json:"mode"`
	StartedAt time.Time `json:"started_at,omitempty"`
	MicLevel  float64   `json:"mic_level"`
}

// Loop runs one live conversation: mic and frames out, model audio back in.
type Loop struct {
	opts  Options
	meter *audio.Meter

	out     chan Chunk
	audioIn chan []byte

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	session   live.Session
	cancel    context.CancelFunc
}

// New constructs a Loop from options.
func New(opts Options) (*Loop, error) {
	if opts.Connect == nil {
		return nil, errors.New("connect function required")
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second
	}
	return &Loop{opts: opts, meter: audio.NewMeter(8)}, nil
}

// Run connects the session and blocks until the context is cancelled, Stop
// is called, or a worker fails. Devices are released before it returns.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrRunning
	}
	l.running = true
	l.startedAt = time.Now()
	l.out = make(chan Chunk, outQueueSize)
	l.audioIn = make(chan []byte, audioInQueueSize)
	l.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	defer cancel()

	sess, err := l.opts.Connect(runCtx)
	if err != nil {
		l.finish()
		return fmt.Errorf("connect live session: %w", err)
	}
	l.mu.Lock()
	l.session = sess
	l.mu.Unlock()

	log.Infof("live session started (mode=%s)", l.opts.Mode)
	l.emit(EventStatus, "session started")

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return l.sendRealtime(gctx, sess) })
	g.Go(func() error { return l.receive(gctx, sess) })
	if l.opts.Audio != nil {
		g.Go(func() error { return l.listenAudio(gctx) })
	}
	if l.opts.Frames != nil {
		g.Go(func() error { return l.produceFrames(gctx) })
	}
	if l.opts.Player != nil {
		g.Go(func() error { return l.playAudio(gctx) })
	}
	// Device reads and session.Receive block outside select; closing them is
	// the only way to unwind the group.
	g.Go(func() error {
		<-gctx.Done()
		l.closeSession()
		if l.opts.Audio != nil {
			_ = l.opts.Audio.Close()
		}
		return nil
	})

	err = g.Wait()
	l.finish()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// sendRealtime forwards queued chunks to the session.
func (l *Loop) sendRealtime(ctx context.Context, sess live.Session) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-l.out:
			if err := sess.SendMedia(c.MIMEType, c.Data); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("send realtime input: %w", err)
			}
		}
	}
}

// listenAudio pushes microphone chunks into the realtime queue.
func (l *Loop) listenAudio(ctx context.Context) error {
	for {
		chunk, err := l.opts.Audio.ReadChunk()
		if err != nil {
			// Device closed during shutdown.
			return nil
		}
		if l.opts.EchoGuard && l.opts.Player != nil && l.opts.Player.Playing() {
			audio.Mute(chunk)
		}
		l.meter.Feed(chunk)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l.out <- Chunk{MIMEType: "audio/pcm", Data: chunk}:
		}
	}
}

// produceFrames captures a frame roughly once per interval, thumbnails it
// and enqueues it as JPEG.
func (l *Loop) produceFrames(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		img, err := l.opts.Frames.NextFrame()
		if err != nil {
			if errors.Is(err, capture.ErrDisconnected) {
				// Losing the camera ends video input, not the conversation.
				log.Warn("video source disconnected")
				l.emit(EventStatus, "video source disconnected")
				return nil
			}
			log.Errorf("frame capture: %v", err)
			continue
		}
		data, err := capture.EncodeJPEG(img, capture.MaxFrameDim)
		if err != nil {
			log.Errorf("frame encode: %v", err)
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l.out <- Chunk{MIMEType: "image/jpeg", Data: data}:
		}
	}
}

// receive reads model output: audio to the playback queue, text to events.
func (l *Loop) receive(ctx context.Context, sess live.Session) error {
	for {
		msg, err := sess.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				// Server ended the session; wind down the whole loop.
				log.Info("live session ended by server")
				l.Stop()
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		if len(msg.Audio) > 0 {
			// Block rather than drop: the model must never lose playback
			// audio, and playAudio keeps the queue moving.
			select {
			case <-ctx.Done():
				return nil
			case l.audioIn <- msg.Audio:
			}
		}
		if msg.Text != "" {
			l.emit(EventText, msg.Text)
		}
		if msg.Interrupted {
			// The queue may hold far more audio than has played; drop it and
			// cut the speaker so the interruption feels instant.
			l.drainPlayback(true)
			l.emit(EventStatus, "interrupted")
		}
		if msg.TurnComplete {
			// Queued audio keeps playing; only an interruption cuts it.
			l.emit(EventStatus, "turn complete")
		}
	}
}

// playAudio feeds queued model audio to the speaker.
func (l *Loop) playAudio(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pcm := <-l.audioIn:
			l.opts.Player.Write(pcm)
			if l.opts.Recorder != nil {
				l.opts.Recorder.Append(pcm)
			}
		}
	}
}

// SendText submits a user text turn to the running session.
func (l *Loop) SendText(text string) error {
	l.mu.Lock()
	sess := l.session
	running := l.running
	l.mu.Unlock()
	if !running || sess == nil {
		return ErrNotRunning
	}
	if err := sess.SendText(text); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

// Stop requests shutdown. Run performs the actual cleanup; Stop is safe to
// call at any time, including before Run and more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Status reports a snapshot for the HTTP shell.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Status{Running: l.running, Mode: l.opts.Mode, MicLevel: l.meter.Level()}
	if l.running {
		s.StartedAt = l.startedAt
	}
	return s
}

func (l *Loop) drainPlayback(flush bool) {
	for {
		select {
		case <-l.audioIn:
		default:
			if flush && l.opts.Player != nil {
				l.opts.Player.Flush()
			}
			return
		}
	}
}

// closeSession closes the live session, bounded so shutdown cannot hang on
// the network.
func (l *Loop) closeSession() {
	l.mu.Lock()
	sess := l.session
	l.session = nil
	l.mu.Unlock()
	if sess == nil {
		return
	}
	done := make(chan error, 1)
	go func() { done <- sess.Close() }()
	select {
	case err := <-done:
		if err != nil {
			log.Errorf("session close: %v", err)
		}
	case <-time.After(closeTimeout):
		log.Warn("session close timed out, forcing closure")
	}
}

// finish releases every resource the loop holds. Closes are idempotent so
// the shutdown watcher and finish may overlap.
func (l *Loop) finish() {
	l.drainPlayback(false)
	l.closeSession()
	if l.opts.Audio != nil {
		_ = l.opts.Audio.Close()
	}
	if l.opts.Player != nil {
		_ = l.opts.Player.Close()
	}
	if l.opts.Frames != nil {
		_ = l.opts.Frames.Close()
	}
	l.mu.Lock()
	l.running = false
	l.cancel = nil
	l.mu.Unlock()
	log.Info("live session stopped")
	l.emit(EventStatus, "session stopped")
}

func (l *Loop) emit(kind EventKind, text string) {
	if l.opts.OnEvent != nil {
		l.opts.OnEvent(Event{Kind: kind, Text: text, At: time.Now()})
	}
}
