// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MP3 files.
// go-mp3 always produces 16-bit stereo at the file's sample rate and does
// not report how many channels the file holds, so mono files cannot be told
// apart from stereo ones. The two channels are averaged so callers get mono
// PCM. Unlike the wav, aiff and vorbis decoders, which reject anything but
// mono, a true stereo MP3 is therefore accepted and mixed down.
//
//	file, _ := os.Open("utterance.mp3")
//	src, err := mp3.Decoder{}.Decode(file)
//	buf := make([]byte, 640)
//	n, err := src.Read(buf)
package mp3
