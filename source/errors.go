// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is matched by every *StateError.
	ErrInvalidState = errors.New("invalid source state")

	// ErrDuplicateNode is returned when a node id is attached twice.
	ErrDuplicateNode = errors.New("node already attached")
)

// StateError reports an operation the current state does not allow.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("source: %s while %s: %v", e.Op, e.State, ErrInvalidState)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// ActivationError wraps a producer Start failure.
type ActivationError struct {
	SourceID string
	Err      error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("source %s: activation failed: %v", e.SourceID, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// DeactivationError wraps a producer Stop failure.
type DeactivationError struct {
	SourceID string
	Err      error
}

func (e *DeactivationError) Error() string {
	return fmt.Sprintf("source %s: deactivation failed: %v", e.SourceID, e.Err)
}

func (e *DeactivationError) Unwrap() error { return e.Err }

// FeedError wraps a producer Read failure. It ends the feed but does not
// change the source state.
type FeedError struct {
	SourceID string
	Err      error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("source %s: feed ended: %v", e.SourceID, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
