// SPDX-License-Identifier: EPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
	"github.com/chousg/cognitive-services-speech-sdk/internal/observe"
)

const (
	// DefaultFrameDuration is how much audio the pump reads per frame.
	DefaultFrameDuration = 20 * time.Millisecond

	// DefaultHandleBuffer is how many frames a node may lag behind before
	// frames are dropped for it.
	DefaultHandleBuffer = 64
)

// Option configures a Source.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	metrics       *observe.Metrics
	kind          string
	frameDuration time.Duration
	handleBuffer  int
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the instruments lifecycle transitions are recorded on.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithProducerKind labels logs and metrics with the producer variant
// (e.g. "microphone", "file").
func WithProducerKind(kind string) Option {
	return func(o *options) { o.kind = kind }
}

// WithFrameDuration sets how much audio each frame of the feed carries.
func WithFrameDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.frameDuration = d
		}
	}
}

// WithHandleBuffer sets the per-node frame queue length.
func WithHandleBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.handleBuffer = n
		}
	}
}

// transition is one in-flight producer Start or Stop. done is closed once
// err is final.
type transition struct {
	done    chan struct{}
	err     error
	waiters atomic.Int32
}

// Source multiplexes one producer across any number of attached nodes.
//
// The producer is started by the first Attach (or TurnOn) and stopped when
// the last node detaches, on TurnOff or on Close. At most one producer Start
// or Stop is in flight at a time; callers arriving during a transition wait
// for its outcome. Stopped and Faulted are terminal.
//
// A Source is safe for concurrent use.
type Source struct {
	id         string
	producer   audio.Producer
	kind       string
	format     audio.Format
	frameBytes int
	handleBuf  int
	logger     *zap.Logger
	metrics    *observe.Metrics
	bus        *Bus

	mu       sync.Mutex
	state    State
	closed   bool
	pending  *transition
	nodes    map[string]*StreamHandle
	feedDone chan struct{}
	feedEnd  bool
}

// New wraps p in a Source in the Idle state. The source owns p.
func New(p audio.Producer, opts ...Option) *Source {
	o := options{
		logger:        zap.NewNop(),
		kind:          "producer",
		frameDuration: DefaultFrameDuration,
		handleBuffer:  DefaultHandleBuffer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = observe.Default()
	}

	id := uuid.NewString()
	format := p.Format()
	frameBytes := format.BytesFor(o.frameDuration)
	if frameBytes <= 0 {
		frameBytes = 2
	}

	return &Source{
		id:         id,
		producer:   p,
		kind:       o.kind,
		format:     format,
		frameBytes: frameBytes,
		handleBuf:  o.handleBuffer,
		logger:     o.logger.With(zap.String("source", id), zap.String("producer", o.kind)),
		metrics:    o.metrics,
		bus:        newBus(),
		state:      Idle,
		nodes:      make(map[string]*StreamHandle),
	}
}

// ID is the source's unique identifier. Available in every state.
func (s *Source) ID() string { return s.id }

// Kind is the producer variant label.
func (s *Source) Kind() string { return s.kind }

// Format of the producer's PCM.
func (s *Source) Format() audio.Format { return s.format }

// Events is the subscription point for lifecycle events. Only the source
// itself publishes on it.
func (s *Source) Events() *Bus { return s.bus }

// State returns the current state.
func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attached returns the number of attached nodes.
func (s *Source) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Attach registers nodeID and returns its handle on the shared feed. The
// first Attach on an Idle source starts the producer; later ones join the
// running feed. Attach fails with an *ActivationError if the start fails,
// and with ErrInvalidState once the source is stopping, stopped, faulted or
// closed.
func (s *Source) Attach(ctx context.Context, nodeID string) (*StreamHandle, error) {
	for {
		s.mu.Lock()
		if s.closed {
			st := s.state
			s.mu.Unlock()
			return nil, &StateError{Op: "attach", State: st}
		}

		switch s.state {
		case Running:
			h, err := s.register(ctx, nodeID)
			s.mu.Unlock()
			return h, err

		case Idle:
			tr := s.beginStart()
			s.mu.Unlock()
			return s.runStart(ctx, tr, nodeID, true)

		case Starting:
			tr := s.pending
			s.mu.Unlock()
			if err := await(ctx, tr); err != nil {
				return nil, err
			}

		default:
			st := s.state
			s.mu.Unlock()
			return nil, &StateError{Op: "attach", State: st}
		}
	}
}

// Detach releases nodeID's handle. Detaching an id that is not attached is
// a no-op. When the last node detaches the producer is stopped and the
// source moves to Stopped; a failed stop moves it to Faulted and returns a
// *DeactivationError.
func (s *Source) Detach(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	h, ok := s.nodes[nodeID]
	if !ok {
		s.mu.Unlock()
		return nil
	}

	delete(s.nodes, nodeID)
	h.release()
	s.metrics.AttachedNodes.Add(ctx, -1)
	s.logger.Debug("node detached", zap.String("node", nodeID), zap.Int("attached", len(s.nodes)))

	if len(s.nodes) > 0 || s.state != Running {
		s.mu.Unlock()
		return nil
	}

	tr := s.beginStop()
	s.mu.Unlock()

	return s.runStop(ctx, tr)
}

// TurnOn starts the producer without attaching a node. It is a no-op on a
// running source.
func (s *Source) TurnOn(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.closed {
			st := s.state
			s.mu.Unlock()
			return &StateError{Op: "turn on", State: st}
		}

		switch s.state {
		case Running:
			s.mu.Unlock()
			return nil

		case Idle:
			tr := s.beginStart()
			s.mu.Unlock()
			_, err := s.runStart(ctx, tr, "", false)
			return err

		case Starting:
			tr := s.pending
			s.mu.Unlock()
			if err := await(ctx, tr); err != nil {
				return err
			}

		default:
			st := s.state
			s.mu.Unlock()
			return &StateError{Op: "turn on", State: st}
		}
	}
}

// TurnOff stops the producer regardless of how many nodes are attached,
// releases every handle and leaves the source Stopped. An in-flight start
// is allowed to finish and is then stopped. If TurnOff waits out a start
// or stop that fails, it returns that transition's error. TurnOff on a
// stopped or faulted source is a no-op.
func (s *Source) TurnOff(ctx context.Context) error {
	for {
		s.mu.Lock()
		switch s.state {
		case Idle:
			s.state = Stopped
			s.mu.Unlock()
			s.logger.Debug("stopped before activation")
			return nil

		case Starting, Stopping:
			tr := s.pending
			s.mu.Unlock()
			if err := await(ctx, tr); err != nil {
				return err
			}

		case Running:
			s.releaseAll(ctx)
			tr := s.beginStop()
			s.mu.Unlock()
			return s.runStop(ctx, tr)

		default:
			s.mu.Unlock()
			return nil
		}
	}
}

// Close turns the source off, releases the producer and closes the event
// bus once queued events are delivered. After Close, Attach and TurnOn fail
// with ErrInvalidState. Close is idempotent.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	offErr := s.TurnOff(context.Background())

	var closeErr error
	if err := s.producer.Close(); err != nil {
		closeErr = fmt.Errorf("source %s: close producer: %w", s.id, err)
	}
	s.bus.shutdown()

	s.logger.Debug("source closed", zap.Stringer("state", s.State()))

	return errors.Join(offErr, closeErr)
}

// beginStart moves Idle to Starting. Called with s.mu held.
func (s *Source) beginStart() *transition {
	tr := &transition{done: make(chan struct{})}
	s.state = Starting
	s.pending = tr
	s.logger.Debug("starting producer")
	return tr
}

// runStart issues the single producer Start for tr and settles the state.
// With attach set, nodeID is registered before the feed begins so the first
// node sees it from its first frame.
func (s *Source) runStart(ctx context.Context, tr *transition, nodeID string, attach bool) (*StreamHandle, error) {
	err := s.producer.Start(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(tr.done)

	s.pending = nil

	if err != nil {
		aerr := &ActivationError{SourceID: s.id, Err: err}
		tr.err = aerr
		s.state = Faulted
		s.metrics.RecordFault(ctx, s.kind, "start")
		s.publish(EventError, aerr)
		s.logger.Warn("producer start failed", zap.Error(err))
		return nil, aerr
	}

	s.state = Running
	s.feedEnd = false

	var h *StreamHandle
	if attach {
		// the registry is empty on entering Running
		h, _ = s.register(ctx, nodeID)
	}

	s.feedDone = make(chan struct{})
	go s.pump(s.feedDone)

	s.metrics.Activations.Add(ctx, 1, observe.ProducerAttr(s.kind))
	s.publish(EventStarted, nil)
	s.logger.Debug("producer running")
	return h, nil
}

// beginStop moves Running to Stopping. Called with s.mu held.
func (s *Source) beginStop() *transition {
	tr := &transition{done: make(chan struct{})}
	s.state = Stopping
	s.pending = tr
	s.logger.Debug("stopping producer")
	return tr
}

// runStop issues the single producer Stop for tr, waits for the pump to
// drain and settles the state.
func (s *Source) runStop(ctx context.Context, tr *transition) error {
	err := s.producer.Stop(ctx)

	s.mu.Lock()
	feedDone := s.feedDone
	s.mu.Unlock()

	if err == nil && feedDone != nil {
		select {
		case <-feedDone:
		case <-ctx.Done():
			s.logger.Warn("feed did not end before context was done", zap.Error(ctx.Err()))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(tr.done)

	s.pending = nil

	if err != nil {
		derr := &DeactivationError{SourceID: s.id, Err: err}
		tr.err = derr
		s.state = Faulted
		s.metrics.RecordFault(ctx, s.kind, "stop")
		s.publish(EventError, derr)
		s.logger.Warn("producer stop failed", zap.Error(err), zap.Int32("waiters", tr.waiters.Load()))
		return derr
	}

	s.state = Stopped
	s.metrics.Deactivations.Add(ctx, 1, observe.ProducerAttr(s.kind))
	s.publish(EventStopped, nil)
	s.logger.Debug("producer stopped", zap.Int32("waiters", tr.waiters.Load()))
	return nil
}

// register adds a handle for nodeID. Called with s.mu held and s.state
// Running.
func (s *Source) register(ctx context.Context, nodeID string) (*StreamHandle, error) {
	if _, ok := s.nodes[nodeID]; ok {
		return nil, fmt.Errorf("source %s: node %q: %w", s.id, nodeID, ErrDuplicateNode)
	}

	h := newStreamHandle(nodeID, s.format, s.handleBuf)
	if s.feedEnd {
		h.release()
	}
	s.nodes[nodeID] = h
	s.metrics.AttachedNodes.Add(ctx, 1)
	s.logger.Debug("node attached", zap.String("node", nodeID), zap.Int("attached", len(s.nodes)))

	return h, nil
}

// releaseAll empties the registry. Called with s.mu held.
func (s *Source) releaseAll(ctx context.Context) {
	if len(s.nodes) == 0 {
		return
	}
	for _, h := range s.nodes {
		h.release()
	}
	s.metrics.AttachedNodes.Add(ctx, -int64(len(s.nodes)))
	clear(s.nodes)
}

// publish emits an event. Called with s.mu held so events leave in
// transition order.
func (s *Source) publish(kind EventKind, err error) {
	s.bus.publish(Event{
		SourceID: s.id,
		Kind:     kind,
		State:    s.state,
		Err:      err,
		Time:     time.Now(),
	})
}

// pump reads the producer until the feed ends and hands every frame to
// all attached nodes.
func (s *Source) pump(done chan struct{}) {
	defer close(done)

	bytesPerSecond := int64(s.format.SampleRate * s.format.BytesPerFrame())
	var seq uint64
	var offset int64 // bytes

	for {
		buf := make([]byte, s.frameBytes)
		n, err := s.producer.Read(buf)
		if n > 0 {
			frame := audio.Frame{Data: buf[:n], Seq: seq}
			if bytesPerSecond > 0 {
				frame.Timestamp = time.Duration(offset * int64(time.Second) / bytesPerSecond)
			}
			seq++
			offset += int64(n)
			s.deliver(frame)
		}

		if err != nil {
			s.endFeed(err)
			return
		}
	}
}

func (s *Source) deliver(f audio.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int64
	for _, h := range s.nodes {
		if !h.offer(f) {
			dropped++
		}
	}
	if dropped > 0 {
		s.metrics.DroppedFrames.Add(context.Background(), dropped, observe.ProducerAttr(s.kind))
		s.logger.Debug("frames dropped", zap.Uint64("seq", f.Seq), zap.Int64("nodes", dropped))
	}
}

// endFeed closes every handle once the producer has nothing more to give.
// A read failure while running is reported as an EventError.
func (s *Source) endFeed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feedEnd = true
	for _, h := range s.nodes {
		h.release()
	}

	if err == io.EOF || s.state != Running {
		s.logger.Debug("feed ended")
		return
	}

	ferr := &FeedError{SourceID: s.id, Err: err}
	s.publish(EventError, ferr)
	s.logger.Warn("feed read failed", zap.Error(err))
}

// await blocks until tr settles or ctx is done.
func await(ctx context.Context, tr *transition) error {
	tr.waiters.Add(1)
	defer tr.waiters.Add(-1)

	select {
	case <-tr.done:
		return tr.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
