// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes mono PCM 16-bit WAV files.
//
// It uses github.com/go-audio/wav for RIFF chunk handling, so files with
// extra chunks (LIST, fact, ...) before the data chunk are accepted.
//
// # Decoding
//
//	file, _ := os.Open("audio.wav")
//	src, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    // ErrNotWavFile, ErrOnlyPCM16bitSupported, audio.ErrUnsupportedFormat
//	}
//	buf := make([]byte, 640)
//	n, err := src.Read(buf)
//
// Non-seekable readers are buffered in memory first.
//
// # Writing
//
// Writer wraps the go-audio encoder and accepts little-endian PCM16 bytes:
//
//	f, _ := os.Create("capture.wav")
//	w, _ := wav.NewWriter(f, audio.DefaultFormat)
//	w.Write(pcm)
//	w.Close()
//	f.Close()
package wav
