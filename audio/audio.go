// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Format describes a PCM stream.
type Format struct {
	SampleRate    int `yaml:"sample_rate"`
	BitsPerSample int `yaml:"bits_per_sample"`
	Channels      int `yaml:"channels"`
}

// DefaultFormat is 16 kHz, 16-bit, mono PCM.
var DefaultFormat = Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}

// BytesPerFrame is the size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitsPerSample / 8
}

// BytesFor returns the number of bytes that hold d of audio, rounded down to
// a whole frame.
func (f Format) BytesFor(d time.Duration) int {
	frames := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	return frames * f.BytesPerFrame()
}

// Validate reports whether f is a format this package can carry.
// Only mono 16-bit PCM is accepted.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate)
	}
	if f.BitsPerSample != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitsPerSample)
	}
	if f.Channels != 1 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dbit/%dch", f.SampleRate, f.BitsPerSample, f.Channels)
}

// Frame is one chunk of the shared feed delivered to every attached node.
type Frame struct {
	// Data is little-endian PCM in the producer's Format. Consumers must
	// treat it as read-only; the same slice is shared by all nodes.
	Data []byte

	// Seq counts frames from the start of the activation cycle.
	Seq uint64

	// Timestamp is the offset of the first sample from the start of the feed.
	Timestamp time.Duration
}

// Producer supplies raw audio to a source. It is the only capability set a
// source needs from a microphone, a file or an application stream.
type Producer interface {
	// Format of the PCM returned by Read.
	Format() Format

	// Start activates the producer. It is called at most once.
	Start(ctx context.Context) error

	// Stop deactivates the producer. Pending and later Reads return io.EOF.
	Stop(ctx context.Context) error

	// Read fills p with PCM bytes. io.EOF marks the end of the feed.
	Read(p []byte) (int, error)

	// Close releases any resources.
	Close() error
}

// PCMReader is a decoded PCM stream, as returned by a Decoder.
type PCMReader interface {
	Format() Format
	// Read fills p with little-endian PCM; io.EOF when the stream is finished.
	Read(p []byte) (int, error)
	// Close releases any resources.
	Close() error
}

// Decoder constructs a PCMReader from an encoded input.
type Decoder interface {
	Decode(r io.Reader) (PCMReader, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

// Register binds d to format. Keys are case-insensitive and a leading dot
// is ignored, so ".WAV" and "wav" name the same entry.
func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[normalizeKey(format)] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[normalizeKey(format)]
	return d, ok
}

// Formats returns the registered keys.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	return keys
}

func normalizeKey(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}
