// SPDX-License-Identifier: EPL-2.0

package microphone

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// Driver opens capture streams on an audio input device.
type Driver interface {
	// Open starts capturing from device (empty for the system default)
	// in format f.
	Open(ctx context.Context, device string, f audio.Format) (Capture, error)
}

// Capture is an open input stream.
type Capture interface {
	// Read blocks until PCM is available.
	Read(p []byte) (int, error)
	Close() error
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(ctx context.Context, device string, f audio.Format) (Capture, error)

func (fn DriverFunc) Open(ctx context.Context, device string, f audio.Format) (Capture, error) {
	return fn(ctx, device, f)
}

// Microphone is a producer capturing from an input device.
type Microphone struct {
	driver Driver
	device string
	format audio.Format
	logger *zap.Logger

	mu      sync.Mutex
	capture Capture
	started bool
	stopped bool
}

// New returns a microphone producer. A nil driver selects the default
// driver for this build.
func New(d Driver, device string, f audio.Format, logger *zap.Logger) *Microphone {
	if d == nil {
		d = DefaultDriver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Microphone{
		driver: d,
		device: device,
		format: f,
		logger: logger.With(zap.String("device", deviceName(device))),
	}
}

func (m *Microphone) Format() audio.Format { return m.format }

// Device is the configured device name, empty for the default device.
func (m *Microphone) Device() string { return m.device }

// Start opens the capture stream.
func (m *Microphone) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("microphone: %w", ErrAlreadyStarted)
	}
	m.started = true

	c, err := m.driver.Open(ctx, m.device, m.format)
	if err != nil {
		return fmt.Errorf("microphone %s: open: %w", deviceName(m.device), err)
	}
	m.capture = c
	m.logger.Debug("capture opened", zap.Stringer("format", m.format))
	return nil
}

// Stop closes the capture stream; a blocked Read returns io.EOF.
func (m *Microphone) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	c := m.capture
	m.capture = nil
	m.mu.Unlock()

	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("microphone %s: close: %w", deviceName(m.device), err)
	}
	m.logger.Debug("capture closed")
	return nil
}

func (m *Microphone) Read(p []byte) (int, error) {
	m.mu.Lock()
	c, stopped := m.capture, m.stopped
	m.mu.Unlock()

	if stopped || c == nil {
		return 0, io.EOF
	}

	n, err := c.Read(p)
	if err != nil {
		m.mu.Lock()
		stopped = m.stopped
		m.mu.Unlock()
		if stopped {
			// reads racing Stop see the closed stream
			return n, io.EOF
		}
	}
	return n, err
}

// Close releases the capture stream if Stop was not called.
func (m *Microphone) Close() error {
	return m.Stop(context.Background())
}

func deviceName(device string) string {
	if device == "" {
		return "default"
	}
	return device
}
