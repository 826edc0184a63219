// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package microphone

import (
	"context"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// DefaultDriver fails every Open with ErrNoDriver. Build with
// -tags portaudio to capture from real devices.
func DefaultDriver() Driver {
	return DriverFunc(func(context.Context, string, audio.Format) (Capture, error) {
		return nil, ErrNoDriver
	})
}
