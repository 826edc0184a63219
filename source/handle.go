// SPDX-License-Identifier: EPL-2.0

package source

import (
	"io"
	"sync/atomic"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// StreamHandle is one node's read-only view over the shared feed.
// Every attached node receives every frame produced while it is attached.
// A handle cannot be closed by its holder: Detach, TurnOff, Close or the
// end of the feed close it.
type StreamHandle struct {
	nodeID string
	format audio.Format
	frames chan audio.Frame

	// closed is guarded by the owning source's mutex.
	closed  bool
	dropped atomic.Uint64

	// rest is the unread tail of the current frame for Read.
	rest []byte
}

func newStreamHandle(nodeID string, format audio.Format, buffer int) *StreamHandle {
	return &StreamHandle{
		nodeID: nodeID,
		format: format,
		frames: make(chan audio.Frame, buffer),
	}
}

// NodeID is the id the handle was attached with.
func (h *StreamHandle) NodeID() string { return h.nodeID }

// Format of the PCM in every frame.
func (h *StreamHandle) Format() audio.Format { return h.format }

// Frames delivers the feed. The channel is closed when the handle is
// released or the feed ends.
func (h *StreamHandle) Frames() <-chan audio.Frame { return h.frames }

// Dropped counts frames discarded because the handle's queue was full.
func (h *StreamHandle) Dropped() uint64 { return h.dropped.Load() }

// Read implements io.Reader over Frames. It must not be mixed with direct
// receives from Frames and is not safe for concurrent use.
func (h *StreamHandle) Read(p []byte) (int, error) {
	if len(h.rest) == 0 {
		f, ok := <-h.frames
		if !ok {
			return 0, io.EOF
		}
		h.rest = f.Data
	}

	n := copy(p, h.rest)
	h.rest = h.rest[n:]
	return n, nil
}

// offer queues f without blocking. Called with the source mutex held.
func (h *StreamHandle) offer(f audio.Frame) bool {
	if h.closed {
		return false
	}
	select {
	case h.frames <- f:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// release closes the frame channel. Called with the source mutex held.
func (h *StreamHandle) release() {
	if h.closed {
		return
	}
	h.closed = true
	close(h.frames)
}
