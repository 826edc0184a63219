// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files.
// Only mono 16-bit PCM is accepted; other layouts fail with
// ErrOnlyPCM16bitSupported or audio.ErrUnsupportedFormat.
//
//	file, _ := os.Open("prompt.aif")
//	src, err := aiff.Decoder{}.Decode(file)
//	buf := make([]byte, 640)
//	n, err := src.Read(buf)
//
// Samples are big-endian on disk and returned as little-endian PCM.
// go-audio requires an io.ReadSeeker; other readers are buffered in memory.
package aiff
