package audio

import (
	"io"
	"sync"
)

// pcmBuffer is a blocking byte buffer shared between a device callback and a
// consumer goroutine. Closing wakes all waiters.
type pcmBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newPCMBuffer(capacity int) *pcmBuffer {
	b := &pcmBuffer{buf: make([]byte, 0, capacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *pcmBuffer) Write(p []byte) {
	b.mu.Lock()
	if !b.closed {
		b.buf = append(b.buf, p...)
	}
	b.mu.Unlock()
	b.cond.Signal()
}

// ReadFull blocks until len(p) bytes are available, then fills p. Returns
// io.EOF once the buffer is closed and drained below a full read.
func (b *pcmBuffer) ReadFull(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.buf) < len(p) && !b.closed {
		b.cond.Wait()
	}
	if len(b.buf) < len(p) {
		return 0, io.EOF
	}
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

// ReadSome blocks until at least one byte is available and reads up to
// len(p). Returns io.EOF once closed and empty.
func (b *pcmBuffer) ReadSome(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.buf) == 0 && !b.closed {
		b.cond.Wait()
	}
	if len(b.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

// Reset drops all buffered bytes immediately.
func (b *pcmBuffer) Reset() {
	b.mu.Lock()
	b.buf = b.buf[:0]
	b.mu.Unlock()
}

func (b *pcmBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

func (b *pcmBuffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}
