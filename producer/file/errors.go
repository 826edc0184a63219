// SPDX-License-Identifier: EPL-2.0

package file

import "errors"

var (
	// ErrUnknownExtension is returned for a file extension with no decoder.
	ErrUnknownExtension = errors.New("no decoder for file extension")

	// ErrFormatMismatch is returned when the decoded file is not in the
	// configured PCM format.
	ErrFormatMismatch = errors.New("file format does not match")

	// ErrAlreadyStarted is returned by a second Start on the same reader.
	ErrAlreadyStarted = errors.New("file reader already started")
)
