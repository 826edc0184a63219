// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
	"github.com/chousg/cognitive-services-speech-sdk/internal/audiotest"
)

// mockMP3Reader simulates the gomp3.Decoder for testing. It hands out at
// most chunk bytes per Read so frames can be split across reads.
type mockMP3Reader struct {
	sampleRate   int
	samples      []int16 // interleaved stereo PCM samples
	offset       int     // in bytes
	chunk        int
	returnErrors bool
}

func (m *mockMP3Reader) SampleRate() int {
	return m.sampleRate
}

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.returnErrors {
		return 0, io.ErrUnexpectedEOF
	}

	raw := make([]byte, len(m.samples)*2)
	for i, s := range m.samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	if m.offset >= len(raw) {
		return 0, io.EOF
	}

	n := len(buf)
	if m.chunk > 0 {
		n = min(n, m.chunk)
	}
	n = copy(buf[:n], raw[m.offset:])
	m.offset += n

	return n, nil
}

func newMockSource(chunk int, stereo ...int16) *source {
	return &source{
		dec:    &mockMP3Reader{sampleRate: 16000, samples: stereo, chunk: chunk},
		format: audio.Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1},
	}
}

func readAll(t *testing.T, s *source, bufSize int) []int16 {
	t.Helper()

	var out []int16
	buf := make([]byte, bufSize)
	for i := 0; i < 1000; i++ {
		n, err := s.Read(buf)
		out = append(out, audiotest.Samples(buf[:n])...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	t.Fatal("Read() never reached io.EOF")
	return nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("This is not MP3 data")))
	if err == nil {
		t.Error("Decode() error = nil, want error for invalid data")
	}
}

func TestDecoder_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader(nil))
	if err == nil {
		t.Error("Decode() error = nil, want error for empty input")
	}
}

func TestSource_FoldsStereo(t *testing.T) {
	t.Parallel()

	src := newMockSource(0, 100, 200, -100, -300, 32767, 32767)
	got := readAll(t, src, 64)

	want := []int16{150, -200, 32767}
	if !slices.Equal(got, want) {
		t.Errorf("samples = %v, want %v", got, want)
	}
}

func TestSource_SplitFrames(t *testing.T) {
	t.Parallel()

	stereo := make([]int16, 0, 40)
	for i := 0; i < 20; i++ {
		stereo = append(stereo, int16(i*10), int16(i*10))
	}

	tests := []struct {
		name    string
		chunk   int
		bufSize int
	}{
		{"odd chunk", 3, 8},
		{"one byte", 1, 4},
		{"larger than request", 100, 6},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newMockSource(tt.chunk, stereo...)
			got := readAll(t, src, tt.bufSize)
			if len(got) != 20 {
				t.Fatalf("got %d samples, want 20", len(got))
			}
			for i, v := range got {
				if v != int16(i*10) {
					t.Errorf("sample %d = %d, want %d", i, v, i*10)
				}
			}
		})
	}
}

func TestSource_Read_Error(t *testing.T) {
	t.Parallel()

	src := &source{dec: &mockMP3Reader{returnErrors: true}, format: audio.DefaultFormat}
	_, err := src.Read(make([]byte, 8))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Read() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestSource_Read_EmptyBuffer(t *testing.T) {
	t.Parallel()

	src := newMockSource(0, 1, 1)
	if n, err := src.Read(make([]byte, 1)); n != 0 || err != nil {
		t.Errorf("Read(1 byte) = (%d, %v), want (0, nil)", n, err)
	}
}
