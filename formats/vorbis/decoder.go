// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
	"github.com/chousg/cognitive-services-speech-sdk/utils"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec      oggReader
	format   audio.Format
	floatBuf []float32
}

func (s *source) Format() audio.Format { return s.format }
func (s *source) Close() error         { return nil }

func (s *source) Read(p []byte) (int, error) {
	samples := len(p) / 2
	if samples == 0 {
		return 0, nil
	}

	if cap(s.floatBuf) < samples {
		s.floatBuf = make([]float32, samples)
	}
	s.floatBuf = s.floatBuf[:samples]

	n, err := s.dec.Read(s.floatBuf)
	for n == 0 {
		if err != nil {
			return 0, err
		}
		// oggvorbis may return nothing at a page boundary
		n, err = s.dec.Read(s.floatBuf)
	}

	return utils.Float32sToPCM16(p, s.floatBuf[:n]), err
}

// Decoder reads mono Ogg Vorbis streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.PCMReader, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec)
}

func newSource(dec oggReader) (*source, error) {
	format := audio.Format{
		SampleRate:    dec.SampleRate(),
		BitsPerSample: 16,
		Channels:      dec.Channels(),
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	return &source{
		dec:      dec,
		format:   format,
		floatBuf: make([]float32, 4096),
	}, nil
}
