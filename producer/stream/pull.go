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

// PullCallback is implemented by applications that hand audio over on
// demand. Read fills p and returns io.EOF at the end of the audio; a
// (0, nil) return also ends it. Close is called once when the source stops
// and should unblock a pending Read.
type PullCallback interface {
	Read(p []byte) (int, error)
	Close() error
}

// PullProducer feeds a source by calling an application PullCallback.
type PullProducer struct {
	cb     PullCallback
	format audio.Format
	logger *zap.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
	closeErr  error

	// carry is only touched by Read.
	carry []byte
}

// NewPullProducer wraps cb as an audio.Producer delivering PCM in format f.
func NewPullProducer(cb PullCallback, f audio.Format, logger *zap.Logger) (*PullProducer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PullProducer{cb: cb, format: f, logger: logger}, nil
}

func (p *PullProducer) Format() audio.Format { return p.format }

func (p *PullProducer) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("pull: %w", ErrAlreadyStarted)
	}
	p.started = true
	p.logger.Debug("pull stream started", zap.Stringer("format", p.format))
	return nil
}

// Stop closes the callback. Reads after Stop return io.EOF.
func (p *PullProducer) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	if err := p.closeCallback(); err != nil {
		return fmt.Errorf("pull: close callback: %w", err)
	}
	p.logger.Debug("pull stream stopped")
	return nil
}

// Read calls the application callback. A trailing partial sample is kept
// and put in front of the next callback's data, so reads always carry whole
// samples. A partial sample left when the callback ends is discarded.
func (p *PullProducer) Read(b []byte) (int, error) {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return 0, io.EOF
	}

	frame := p.format.BytesPerFrame()
	b = b[:len(b)-len(b)%frame]
	if len(b) == 0 {
		return 0, io.ErrShortBuffer
	}

	n := copy(b, p.carry)
	p.carry = p.carry[:0]
	for {
		m, err := p.cb.Read(b[n:])
		n += m
		if m == 0 && err == nil {
			err = io.EOF
		}

		aligned := n - n%frame
		if err != nil {
			if n > aligned {
				p.logger.Debug("discarding partial sample", zap.Int("bytes", n-aligned))
			}
			return aligned, err
		}
		if aligned > 0 {
			p.carry = append(p.carry, b[aligned:n]...)
			return aligned, nil
		}
	}
}

// Close closes the callback unless Stop already did.
func (p *PullProducer) Close() error {
	return p.closeCallback()
}

func (p *PullProducer) closeCallback() error {
	p.closeOnce.Do(func() { p.closeErr = p.cb.Close() })
	return p.closeErr
}
