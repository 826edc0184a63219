// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio aiff.Decoder to implement audio.PCMReader
type source struct {
	dec    aiffReader
	format audio.Format
	intBuf *goaudio.IntBuffer
}

func (s *source) Format() audio.Format { return s.format }
func (s *source) Close() error         { return nil }

func (s *source) Read(p []byte) (int, error) {
	samples := len(p) / 2
	if samples == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < samples {
		s.intBuf = &goaudio.IntBuffer{Data: make([]int, samples)}
	} else {
		s.intBuf.Data = s.intBuf.Data[:samples]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("%w", err)
		}
		return 0, io.EOF
	}

	// AIFF is big-endian on disk; go-audio hands us host ints and the
	// feed is little-endian.
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(int16(s.intBuf.Data[i])))
	}

	if err == io.EOF {
		err = nil
	}
	return n * 2, err
}

// Decoder reads AIFF files holding mono 16-bit PCM.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.PCMReader, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()

	if dec.BitDepth != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}

	goFormat := dec.Format()
	if goFormat == nil {
		return nil, ErrUnsupportedAiffLayout
	}

	format := audio.Format{
		SampleRate:    goFormat.SampleRate,
		BitsPerSample: int(dec.BitDepth),
		Channels:      goFormat.NumChannels,
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &source{
		dec:    dec,
		format: format,
	}, nil
}
