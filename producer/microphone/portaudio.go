// SPDX-License-Identifier: EPL-2.0

//go:build portaudio

package microphone

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// FramesPerBuffer is the PortAudio buffer size: 20 ms at 16 kHz.
const FramesPerBuffer = 320

// DefaultDriver captures through PortAudio.
func DefaultDriver() Driver { return portaudioDriver{} }

type portaudioDriver struct{}

func (portaudioDriver) Open(ctx context.Context, device string, f audio.Format) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	info, err := inputDevice(device)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = f.Channels
	params.SampleRate = float64(f.SampleRate)
	params.FramesPerBuffer = FramesPerBuffer

	c := &paCapture{buf: make([]int16, FramesPerBuffer*f.Channels)}
	stream, err := portaudio.OpenStream(params, c.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio open %q: %w", info.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio start %q: %w", info.Name, err)
	}
	c.stream = stream

	return c, nil
}

func inputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == name && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}

// paCapture reads one PortAudio buffer at a time. Read and Close are
// serialized, so Close waits for at most one buffer.
type paCapture struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []int16
	rest   []byte
	closed bool
}

func (c *paCapture) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, io.EOF
	}

	if len(c.rest) == 0 {
		if err := c.stream.Read(); err != nil && err != portaudio.InputOverflowed {
			return 0, err
		}
		out := make([]byte, len(c.buf)*2)
		for i, s := range c.buf {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
		}
		c.rest = out
	}

	n := copy(p, c.rest)
	c.rest = c.rest[n:]
	return n, nil
}

func (c *paCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	stopErr := c.stream.Stop()
	closeErr := c.stream.Close()
	portaudio.Terminate()

	if stopErr != nil {
		return stopErr
	}
	return closeErr
}
