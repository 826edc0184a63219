// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds fakes and PCM fixtures shared by tests.
package audiotest

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// Producer is a test helper implementing audio.Producer. It records every
// lifecycle call and serves a feed of queued chunks. Reads block until a
// chunk is queued, the feed is ended, or the producer is stopped.
type Producer struct {
	// StartErr and StopErr are returned by Start and Stop when set.
	StartErr error
	StopErr  error

	// StartGate, when non-nil, blocks Start until it is closed or the
	// context is done.
	StartGate chan struct{}

	// StopGate, when non-nil, blocks Stop until it is closed or the
	// context is done.
	StopGate chan struct{}

	// ReadErr is returned once the queued chunks are drained, instead of
	// blocking. It takes precedence over EndFeed.
	ReadErr error

	format audio.Format

	starts atomic.Int32
	stops  atomic.Int32
	closes atomic.Int32
	reads  atomic.Int32

	entered     chan struct{}
	enteredOnce sync.Once

	mu      sync.Mutex
	cond    *sync.Cond
	chunks  [][]byte
	ended   bool
	stopped bool
}

// NewProducer creates a fake producer in format f with chunks pre-queued.
func NewProducer(f audio.Format, chunks ...[]byte) *Producer {
	p := &Producer{
		format:  f,
		chunks:  chunks,
		entered: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Producer) Format() audio.Format { return p.format }

func (p *Producer) Start(ctx context.Context) error {
	p.starts.Add(1)
	p.enteredOnce.Do(func() { close(p.entered) })

	if p.StartGate != nil {
		select {
		case <-p.StartGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.StartErr
}

func (p *Producer) Stop(ctx context.Context) error {
	p.stops.Add(1)

	if p.StopGate != nil {
		select {
		case <-p.StopGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.cond.Broadcast()

	return p.StopErr
}

func (p *Producer) Read(b []byte) (int, error) {
	p.reads.Add(1)

	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.chunks) == 0 {
		if p.stopped || p.ended {
			return 0, io.EOF
		}
		if p.ReadErr != nil {
			return 0, p.ReadErr
		}
		p.cond.Wait()
	}

	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *Producer) Close() error {
	p.closes.Add(1)
	return nil
}

// Push queues a chunk for the next Read.
func (p *Producer) Push(chunk []byte) {
	p.mu.Lock()
	p.chunks = append(p.chunks, chunk)
	p.mu.Unlock()
	p.cond.Broadcast()
}

// EndFeed makes Read return io.EOF once the queued chunks are drained.
func (p *Producer) EndFeed() {
	p.mu.Lock()
	p.ended = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Entered is closed when Start is first called.
func (p *Producer) Entered() <-chan struct{} { return p.entered }

func (p *Producer) Starts() int { return int(p.starts.Load()) }
func (p *Producer) Stops() int  { return int(p.stops.Load()) }
func (p *Producer) Closes() int { return int(p.closes.Load()) }
func (p *Producer) Reads() int  { return int(p.reads.Load()) }
