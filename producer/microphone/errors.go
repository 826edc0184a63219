// SPDX-License-Identifier: EPL-2.0

package microphone

import "errors"

var (
	// ErrNoDriver is returned when no capture backend was compiled in.
	ErrNoDriver = errors.New("no microphone driver available")

	// ErrAlreadyStarted is returned by a second Start on the same
	// microphone.
	ErrAlreadyStarted = errors.New("microphone already started")
)
