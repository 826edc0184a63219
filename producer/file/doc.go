// SPDX-License-Identifier: EPL-2.0

// Package file provides a producer that reads audio files.
//
// WAV, AIFF, MP3 and Ogg Vorbis files are decoded with the decoders in
// formats/. The decoded PCM must be mono 16-bit at the configured sample
// rate; files are never converted.
package file
