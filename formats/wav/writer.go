// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// Writer streams PCM16 bytes into a WAV file. The RIFF sizes are patched
// on Close, which is why the destination must be seekable.
type Writer struct {
	enc    *gowav.Encoder
	format audio.Format
	intBuf *goaudio.IntBuffer
}

// NewWriter starts a WAV file in ws for PCM in format f.
func NewWriter(ws io.WriteSeeker, f audio.Format) (*Writer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &Writer{
		enc:    gowav.NewEncoder(ws, f.SampleRate, f.BitsPerSample, f.Channels, wavFormatPCM),
		format: f,
		intBuf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: f.Channels, SampleRate: f.SampleRate},
			SourceBitDepth: f.BitsPerSample,
		},
	}, nil
}

// Write appends little-endian PCM16 bytes.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p)%2 != 0 {
		return 0, ErrOddByteCount
	}
	if len(p) == 0 {
		return 0, nil
	}

	samples := len(p) / 2
	if cap(w.intBuf.Data) < samples {
		w.intBuf.Data = make([]int, samples)
	}
	w.intBuf.Data = w.intBuf.Data[:samples]

	for i := 0; i < samples; i++ {
		w.intBuf.Data[i] = int(int16(binary.LittleEndian.Uint16(p[2*i:])))
	}

	if err := w.enc.Write(w.intBuf); err != nil {
		return 0, fmt.Errorf("%w", err)
	}
	return len(p), nil
}

// Format of the PCM the writer expects.
func (w *Writer) Format() audio.Format { return w.format }

// Close finalizes the headers. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
