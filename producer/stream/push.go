// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// PushStream is written to by the application. Data is buffered until the
// source reads it.
type PushStream struct {
	format audio.Format

	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
	// stopped is set by the producer side and wakes blocked reads.
	stopped bool
}

// NewPushStream returns an open stream carrying PCM in format f.
func NewPushStream(f audio.Format) (*PushStream, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s := &PushStream{format: f}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// Format of the PCM the application writes.
func (s *PushStream) Format() audio.Format { return s.format }

// Write appends p to the stream. It never blocks.
func (s *PushStream) Write(p []byte) (int, error) {
	if len(p)%s.format.BytesPerFrame() != 0 {
		return 0, ErrOddWrite
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStreamClosed
	}
	s.buf = append(s.buf, p...)
	s.cond.Broadcast()

	return len(p), nil
}

// Close marks the end of the stream. Buffered data is still delivered.
func (s *PushStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.cond.Broadcast()
	return nil
}

// Buffered returns the number of bytes written but not yet read.
func (s *PushStream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *PushStream) read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buf) == 0 || s.stopped {
		if s.closed || s.stopped {
			return 0, io.EOF
		}
		s.cond.Wait()
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *PushStream) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// PushProducer feeds a source from a PushStream.
type PushProducer struct {
	stream *PushStream
	logger *zap.Logger

	mu      sync.Mutex
	started bool
}

// NewPushProducer wraps s as an audio.Producer.
func NewPushProducer(s *PushStream, logger *zap.Logger) *PushProducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushProducer{stream: s, logger: logger}
}

func (p *PushProducer) Format() audio.Format { return p.stream.format }

func (p *PushProducer) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("push: %w", ErrAlreadyStarted)
	}
	p.started = true
	p.logger.Debug("push stream started", zap.Stringer("format", p.stream.format))
	return nil
}

// Stop wakes any blocked Read, which then returns io.EOF. Data the
// application writes afterwards is never read.
func (p *PushProducer) Stop(ctx context.Context) error {
	p.stream.stop()
	p.logger.Debug("push stream stopped", zap.Int("unread", p.stream.Buffered()))
	return nil
}

// Read blocks until data is written, the stream is closed, or the producer
// is stopped.
func (p *PushProducer) Read(b []byte) (int, error) {
	return p.stream.read(b)
}

// Close releases the producer. The application still owns the stream.
func (p *PushProducer) Close() error {
	p.stream.stop()
	return nil
}
