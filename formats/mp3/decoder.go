// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec    mp3Reader
	format audio.Format
	buf    []byte // stereo bytes from the decoder
	carry  int    // bytes of an incomplete stereo frame at the head of buf
}

func (s *source) Format() audio.Format { return s.format }
func (s *source) Close() error         { return nil }

func (s *source) Read(p []byte) (int, error) {
	frames := len(p) / 2
	if frames == 0 {
		return 0, nil
	}

	// go-mp3 returns 16-bit little-endian PCM bytes (stereo interleaved),
	// 4 bytes per frame, and may split a frame across reads.
	need := frames * 4
	if cap(s.buf) < need {
		nb := make([]byte, need)
		copy(nb, s.buf[:s.carry])
		s.buf = nb
	}
	s.buf = s.buf[:need]

	var (
		total, aligned int
		err            error
	)
	for aligned == 0 {
		var n int
		n, err = s.dec.Read(s.buf[s.carry:])
		total = s.carry + n
		aligned = total - total%4
		if aligned > 0 {
			break
		}
		s.carry = total
		if err != nil {
			// A trailing partial frame is dropped.
			return 0, err
		}
	}

	out, foldErr := audio.FoldStereo16(p, s.buf[:aligned])
	if foldErr != nil {
		return 0, fmt.Errorf("%w", foldErr)
	}
	s.carry = copy(s.buf, s.buf[aligned:total])

	return out, err
}

// Decoder reads MP3 streams. go-mp3 always decodes to two channels; the
// channels are averaged so the result is mono.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.PCMReader, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &source{
		dec: dec,
		format: audio.Format{
			SampleRate:    dec.SampleRate(),
			BitsPerSample: 16,
			Channels:      1,
		},
		buf: make([]byte, 8192),
	}, nil
}
