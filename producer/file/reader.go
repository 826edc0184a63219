// SPDX-License-Identifier: EPL-2.0

package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// Option configures a Reader.
type Option func(*Reader)

// WithRegistry sets the decoders used to open files. The default holds
// every built-in decoder.
func WithRegistry(r *audio.Registry) Option {
	return func(fr *Reader) {
		if r != nil {
			fr.registry = r
		}
	}
}

// WithFormat sets the PCM format the decoded file must have.
func WithFormat(f audio.Format) Option {
	return func(fr *Reader) { fr.format = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(fr *Reader) {
		if l != nil {
			fr.logger = l
		}
	}
}

// Reader is a producer that decodes an audio file. The decoder is chosen
// by file extension when the producer starts.
type Reader struct {
	path     string
	file     *os.File
	owned    bool
	registry *audio.Registry
	format   audio.Format
	logger   *zap.Logger

	mu      sync.Mutex
	pcm     audio.PCMReader
	started bool
	stopped bool
}

// New returns a Reader for the file at path. The file is opened on Start
// and closed on Stop.
func New(path string, opts ...Option) *Reader {
	return newReader(path, nil, opts)
}

// NewFromHandle returns a Reader over an already open file. The caller
// keeps ownership of f; Stop does not close it.
func NewFromHandle(f *os.File, opts ...Option) *Reader {
	return newReader(f.Name(), f, opts)
}

func newReader(path string, f *os.File, opts []Option) *Reader {
	r := &Reader{
		path:   path,
		file:   f,
		format: audio.DefaultFormat,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry, _ = NewRegistry()
	}
	r.logger = r.logger.With(zap.String("file", path))
	return r
}

// Path is the file name the reader was created with.
func (r *Reader) Path() string { return r.path }

// Format is the PCM format delivered by Read.
func (r *Reader) Format() audio.Format { return r.format }

// Start opens and decodes the file.
func (r *Reader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("file %s: %w", r.path, ErrAlreadyStarted)
	}
	r.started = true

	dec, err := lookup(r.registry, r.path)
	if err != nil {
		return err
	}

	f := r.file
	if f == nil {
		if f, err = os.Open(r.path); err != nil {
			return fmt.Errorf("file %s: %w", r.path, err)
		}
		r.file = f
		r.owned = true
	}

	pcm, err := dec.Decode(f)
	if err != nil {
		r.release()
		return fmt.Errorf("file %s: decode: %w", r.path, err)
	}

	if got := pcm.Format(); got != r.format {
		_ = pcm.Close()
		r.release()
		return fmt.Errorf("file %s: %w: file is %v, want %v", r.path, ErrFormatMismatch, got, r.format)
	}

	r.pcm = pcm
	r.logger.Debug("file opened", zap.Stringer("format", r.format))
	return nil
}

// Stop ends the feed and closes a file opened by the reader.
func (r *Reader) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	return r.closePCM()
}

// Read returns decoded PCM. io.EOF marks the end of the file.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.pcm == nil {
		return 0, io.EOF
	}

	p = p[:len(p)-len(p)%r.format.BytesPerFrame()]
	if len(p) == 0 {
		return 0, io.ErrShortBuffer
	}
	n, err := r.pcm.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

// Close releases the reader. It is safe to call after Stop.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	return r.closePCM()
}

// closePCM is called with r.mu held.
func (r *Reader) closePCM() error {
	var errs []error
	if r.pcm != nil {
		errs = append(errs, r.pcm.Close())
		r.pcm = nil
	}
	errs = append(errs, r.release())
	return errors.Join(errs...)
}

// release closes the file if the reader opened it. Called with r.mu held.
func (r *Reader) release() error {
	if !r.owned || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.owned = false
	if err != nil {
		return fmt.Errorf("file %s: close: %w", r.path, err)
	}
	r.logger.Debug("file closed")
	return nil
}

// Supported reports whether reg has a decoder for the file name's
// extension.
func Supported(reg *audio.Registry, name string) bool {
	_, err := lookup(reg, name)
	return err == nil
}

func lookup(reg *audio.Registry, name string) (audio.Decoder, error) {
	ext := normalizeExt(filepath.Ext(name))
	if ext == "" {
		return nil, fmt.Errorf("file %s: %w: no extension", name, ErrUnknownExtension)
	}
	d, ok := reg.Get(ext)
	if !ok {
		return nil, fmt.Errorf("file %s: %w: %q", name, ErrUnknownExtension, ext)
	}
	return d, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
