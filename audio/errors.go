// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be a multiple of the frame size")

	// ErrUnsupportedFormat is returned for anything other than mono 16-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported PCM format")
)
