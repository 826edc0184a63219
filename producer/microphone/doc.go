// SPDX-License-Identifier: EPL-2.0

// Package microphone provides a producer capturing from an audio input
// device.
//
// Capture backends implement Driver. Built with -tags portaudio the default
// driver uses PortAudio (github.com/gordonklaus/portaudio, which needs the
// PortAudio C library); otherwise DefaultDriver returns ErrNoDriver and a
// Driver must be supplied.
package microphone
