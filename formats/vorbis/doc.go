// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis decoding.
//
// This package uses github.com/jfreymuth/oggvorbis, a pure Go decoder.
// Vorbis decodes to float32 samples; they are clamped and converted to
// 16-bit PCM with utils.Float32sToPCM16. Only mono streams are accepted.
//
//	file, _ := os.Open("prompt.ogg")
//	src, err := vorbis.Decoder{}.Decode(file)
//	buf := make([]byte, 640)
//	n, err := src.Read(buf)
package vorbis
