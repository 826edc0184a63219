// SPDX-License-Identifier: EPL-2.0

package stream

import "errors"

var (
	// ErrStreamClosed is returned by Write after Close.
	ErrStreamClosed = errors.New("stream closed")

	// ErrOddWrite is returned when a write does not hold whole 16-bit samples.
	ErrOddWrite = errors.New("write must contain whole samples")

	// ErrAlreadyStarted is returned by a second Start on the same producer.
	ErrAlreadyStarted = errors.New("stream producer already started")
)
