// SPDX-License-Identifier: EPL-2.0

package source

import (
	"sync"
	"time"
)

// EventKind classifies a source lifecycle event.
type EventKind int

const (
	// EventStarted is emitted once per activation cycle, on entering Running.
	EventStarted EventKind = iota

	// EventStopped is emitted when a running producer has been stopped.
	EventStopped

	// EventError carries an *ActivationError, *DeactivationError or *FeedError.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is an immutable record of a lifecycle transition.
type Event struct {
	SourceID string
	Kind     EventKind

	// State is the source state right after the transition.
	State State

	// Err is set for EventError.
	Err error

	Time time.Time
}

// closeGrace bounds how long a subscriber that stopped reading can hold
// back its subscription goroutine once the bus is shut down.
const closeGrace = time.Second

// Bus fans events from one source out to any number of subscribers.
// Each subscriber has its own unbounded queue, so publishing never blocks
// and every subscriber sees events in publish order. Events published
// before a subscription are not replayed.
//
// Only the owning Source publishes and shuts the bus down; callers can
// only subscribe.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func newBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a subscriber. On a closed bus the returned
// subscription's channel is already closed.
//
// Subscribers should read C until it is closed, or Unsubscribe. Once the
// source is closed, an event left unread for a second is dropped along
// with everything queued behind it and C is closed.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{
		bus:     b,
		out:     make(chan Event),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		closing: make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(s.out)
		return s
	}
	b.subs[s] = struct{}{}
	go s.run()

	return s
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// publish queues ev for every current subscriber.
func (b *Bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for s := range b.subs {
		s.enqueue(ev)
	}
}

// shutdown stops accepting events. Subscribers receive what is already
// queued and then see their channel closed. shutdown is idempotent.
func (b *Bus) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.closing)
	}
	clear(b.subs)
}

// Subscription is one subscriber's view of a Bus.
type Subscription struct {
	bus     *Bus
	out     chan Event
	wake    chan struct{}
	quit    chan struct{}
	closing chan struct{}

	mu       sync.Mutex
	queue    []Event
	quitOnce sync.Once
}

// C delivers events in publish order. It is closed after Unsubscribe or
// after the bus is closed and the queue is drained.
func (s *Subscription) C() <-chan Event { return s.out }

// Unsubscribe stops delivery and closes C. Queued events are discarded.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()

	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest queued event.
func (s *Subscription) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue[0] = Event{}
	s.queue = s.queue[1:]
	return ev, true
}

func (s *Subscription) run() {
	defer close(s.out)

	for {
		ev, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			case <-s.closing:
				// Nothing is published after closing, so an empty queue
				// here is final.
				if ev, ok = s.next(); !ok {
					return
				}
			}
		}
		if !s.send(ev) {
			return
		}
	}
}

// send hands ev to the subscriber. After the bus is shut down it waits at
// most closeGrace.
func (s *Subscription) send(ev Event) bool {
	select {
	case s.out <- ev:
		return true
	case <-s.quit:
		return false
	case <-s.closing:
	}

	grace := time.NewTimer(closeGrace)
	defer grace.Stop()

	select {
	case s.out <- ev:
		return true
	case <-s.quit:
		return false
	case <-grace.C:
		return false
	}
}
