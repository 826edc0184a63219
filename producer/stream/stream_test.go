// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
	"github.com/chousg/cognitive-services-speech-sdk/internal/audiotest"
)

func TestPushStream_WriteRead(t *testing.T) {
	t.Parallel()

	ps, err := NewPushStream(audio.DefaultFormat)
	if err != nil {
		t.Fatalf("NewPushStream() error = %v", err)
	}
	p := NewPushProducer(ps, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	want := audiotest.PCM16(1, 2, 3, 4)
	go func() {
		_, _ = ps.Write(want[:4])
		_, _ = ps.Write(want[4:])
		_ = ps.Close()
	}()

	got, err := io.ReadAll(p)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("ReadAll() = %v, want %v", got, want)
	}
	if _, err := ps.Write(want); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Write() after Close error = %v, want ErrStreamClosed", err)
	}
}

func TestPushStream_StopUnblocksRead(t *testing.T) {
	t.Parallel()

	ps, _ := NewPushStream(audio.DefaultFormat)
	p := NewPushProducer(ps, nil)
	_ = p.Start(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := p.Read(make([]byte, 64))
		done <- err
	}()

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := <-done; err != io.EOF {
		t.Errorf("Read() error = %v, want io.EOF", err)
	}

	_, _ = ps.Write(audiotest.PCM16(9))
	if _, err := p.Read(make([]byte, 8)); err != io.EOF {
		t.Errorf("Read() after Stop error = %v, want io.EOF", err)
	}
}

func TestPushStream_Rejects(t *testing.T) {
	t.Parallel()

	if _, err := NewPushStream(audio.Format{SampleRate: 16000, BitsPerSample: 16, Channels: 2}); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("NewPushStream(stereo) error = %v, want ErrUnsupportedFormat", err)
	}

	ps, _ := NewPushStream(audio.DefaultFormat)
	if _, err := ps.Write([]byte{1, 2, 3}); !errors.Is(err, ErrOddWrite) {
		t.Errorf("Write(3 bytes) error = %v, want ErrOddWrite", err)
	}

	p := NewPushProducer(ps, nil)
	_ = p.Start(context.Background())
	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

type fakeCallback struct {
	r      io.Reader
	chunk  int // max bytes per Read; 0 means no limit
	closes atomic.Int32
}

func (c *fakeCallback) Read(p []byte) (int, error) {
	if c.chunk > 0 && len(p) > c.chunk {
		p = p[:c.chunk]
	}
	return c.r.Read(p)
}

func (c *fakeCallback) Close() error {
	c.closes.Add(1)
	return nil
}

func TestPullProducer_Read(t *testing.T) {
	t.Parallel()

	want := audiotest.PCM16(10, 20, 30)
	cb := &fakeCallback{r: bytes.NewReader(want)}
	p, err := NewPullProducer(cb, audio.DefaultFormat, nil)
	if err != nil {
		t.Fatalf("NewPullProducer() error = %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// odd-sized buffers are trimmed to whole samples
	var got []byte
	buf := make([]byte, 3)
	for {
		n, err := p.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if !slices.Equal(got, want) {
		t.Errorf("Read() = %v, want %v", got, want)
	}
}

func TestPullProducer_MisalignedCallback(t *testing.T) {
	t.Parallel()

	samples := audiotest.PCM16(1, -2, 3, -4, 5, -6, 7)
	tests := []struct {
		name  string
		data  []byte
		chunk int
		want  []int16
	}{
		{"one byte", samples, 1, []int16{1, -2, 3, -4, 5, -6, 7}},
		{"three bytes", samples, 3, []int16{1, -2, 3, -4, 5, -6, 7}},
		{"five bytes", samples, 5, []int16{1, -2, 3, -4, 5, -6, 7}},
		{"trailing half sample", append(slices.Clone(samples), 0x7f), 3, []int16{1, -2, 3, -4, 5, -6, 7}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cb := &fakeCallback{r: bytes.NewReader(tt.data), chunk: tt.chunk}
			p, err := NewPullProducer(cb, audio.DefaultFormat, nil)
			if err != nil {
				t.Fatalf("NewPullProducer() error = %v", err)
			}
			_ = p.Start(context.Background())

			var got []byte
			buf := make([]byte, 640)
			for {
				n, err := p.Read(buf)
				if n%2 != 0 {
					t.Fatalf("Read() = %d bytes, want whole samples", n)
				}
				got = append(got, buf[:n]...)
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Read() error = %v", err)
				}
			}
			if s := audiotest.Samples(got); !slices.Equal(s, tt.want) {
				t.Errorf("samples = %v, want %v", s, tt.want)
			}
		})
	}
}

func TestPullProducer_StopClosesCallbackOnce(t *testing.T) {
	t.Parallel()

	cb := &fakeCallback{r: bytes.NewReader(audiotest.PCM16(1, 2))}
	p, _ := NewPullProducer(cb, audio.DefaultFormat, nil)
	_ = p.Start(context.Background())

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, err := p.Read(make([]byte, 4)); err != io.EOF {
		t.Errorf("Read() after Stop error = %v, want io.EOF", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := cb.closes.Load(); got != 1 {
		t.Errorf("callback closed %d times, want 1", got)
	}
}

func TestPullProducer_ShortBuffer(t *testing.T) {
	t.Parallel()

	cb := &fakeCallback{r: bytes.NewReader(audiotest.PCM16(1))}
	p, _ := NewPullProducer(cb, audio.DefaultFormat, nil)

	if _, err := p.Read(make([]byte, 1)); !errors.Is(err, io.ErrShortBuffer) {
		t.Errorf("Read(1 byte) error = %v, want io.ErrShortBuffer", err)
	}
}
