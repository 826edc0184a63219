// SPDX-License-Identifier: EPL-2.0

package speechsdk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
	"github.com/chousg/cognitive-services-speech-sdk/config"
	"github.com/chousg/cognitive-services-speech-sdk/internal/observe"
	"github.com/chousg/cognitive-services-speech-sdk/producer/file"
	"github.com/chousg/cognitive-services-speech-sdk/producer/microphone"
	"github.com/chousg/cognitive-services-speech-sdk/producer/stream"
	"github.com/chousg/cognitive-services-speech-sdk/source"
)

// ErrUnsupportedInput is matched by every *UnsupportedInputError.
var ErrUnsupportedInput = errors.New("unsupported audio input")

// UnsupportedInputError reports a factory input matching none of the known
// input shapes.
type UnsupportedInputError struct {
	Input  any
	Reason string
}

func (e *UnsupportedInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("speechsdk: %v: %T: %s", ErrUnsupportedInput, e.Input, e.Reason)
	}
	return fmt.Sprintf("speechsdk: %v: %T", ErrUnsupportedInput, e.Input)
}

func (e *UnsupportedInputError) Is(target error) bool { return target == ErrUnsupportedInput }

// AudioSource is the capability set of a source returned by the factory.
type AudioSource interface {
	ID() string
	Attach(ctx context.Context, nodeID string) (*source.StreamHandle, error)
	Detach(ctx context.Context, nodeID string) error
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
	Events() *source.Bus
	Close() error
}

var _ AudioSource = (*source.Source)(nil)

// Input is one of the input shapes the factory understands:
// MicrophoneInput, FileInput, FileHandleInput, PushStreamInput or
// PullStreamInput.
type Input interface {
	input()
}

// MicrophoneInput captures from an input device.
type MicrophoneInput struct {
	// Device name; empty uses the configured device, then the system default.
	Device string
}

// FileInput reads the audio file at Path.
type FileInput struct {
	Path string
}

// FileHandleInput reads an already open audio file. The caller keeps
// ownership of File.
type FileHandleInput struct {
	File *os.File
}

// PushStreamInput reads audio the application writes to Stream.
type PushStreamInput struct {
	Stream *stream.PushStream
}

// PullStreamInput reads audio by calling Callback.
type PullStreamInput struct {
	Callback stream.PullCallback
}

func (MicrophoneInput) input() {}
func (FileInput) input()       {}
func (FileHandleInput) input() {}
func (PushStreamInput) input() {}
func (PullStreamInput) input() {}

// Option configures a Factory.
type Option func(*Factory)

// WithConfig sets the configuration. The default is config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(f *Factory) {
		if cfg != nil {
			f.cfg = cfg
		}
	}
}

// WithLogger sets the logger passed to every source and producer.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMeterProvider records source metrics on mp instead of the global
// provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(f *Factory) { f.meterProvider = mp }
}

// WithMicrophoneDriver sets the capture backend for microphone sources.
func WithMicrophoneDriver(d microphone.Driver) Option {
	return func(f *Factory) { f.driver = d }
}

// WithRegistry sets the decoders for file sources, overriding the
// configured extensions.
func WithRegistry(r *audio.Registry) Option {
	return func(f *Factory) { f.registry = r }
}

// Factory builds sources from inputs. It is safe for concurrent use.
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	meterProvider metric.MeterProvider
	metrics       *observe.Metrics
	driver        microphone.Driver
	registry      *audio.Registry
}

// NewFactory validates the configuration and returns a Factory.
func NewFactory(opts ...Option) (*Factory, error) {
	f := &Factory{
		cfg:    config.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := config.Validate(f.cfg); err != nil {
		return nil, fmt.Errorf("speechsdk: %w", err)
	}

	if f.registry == nil {
		reg, err := file.NewRegistry(f.cfg.File.Extensions...)
		if err != nil {
			return nil, fmt.Errorf("speechsdk: %w", err)
		}
		f.registry = reg
	}

	if f.meterProvider != nil {
		m, err := observe.NewMetrics(f.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("speechsdk: metrics: %w", err)
		}
		f.metrics = m
	} else {
		f.metrics = observe.Default()
	}

	if f.driver == nil {
		f.driver = microphone.DefaultDriver()
	}

	return f, nil
}

// Config returns the factory configuration.
func (f *Factory) Config() *config.Config { return f.cfg }

// New builds an idle source for in. Inputs matching no known shape, or a
// known shape with a nil or unusable value, fail with an
// *UnsupportedInputError and construct nothing.
func (f *Factory) New(in Input) (*source.Source, error) {
	p, kind, err := f.producer(in)
	if err != nil {
		return nil, err
	}

	src := source.New(p,
		source.WithLogger(f.logger),
		source.WithMetrics(f.metrics),
		source.WithProducerKind(kind),
		source.WithFrameDuration(f.cfg.FrameDuration),
		source.WithHandleBuffer(f.cfg.HandleBuffer),
	)
	f.logger.Debug("source created", zap.String("source", src.ID()), zap.String("producer", kind))

	return src, nil
}

func (f *Factory) producer(in Input) (audio.Producer, string, error) {
	logger := f.logger

	switch v := in.(type) {
	case MicrophoneInput:
		device := v.Device
		if device == "" {
			device = f.cfg.Microphone.Device
		}
		return microphone.New(f.driver, device, f.cfg.Format, logger), "microphone", nil

	case FileInput:
		if v.Path == "" {
			return nil, "", &UnsupportedInputError{Input: in, Reason: "empty path"}
		}
		if !file.Supported(f.registry, v.Path) {
			return nil, "", &UnsupportedInputError{Input: in, Reason: "no decoder for " + v.Path}
		}
		return file.New(v.Path, f.fileOptions()...), "file", nil

	case FileHandleInput:
		if v.File == nil {
			return nil, "", &UnsupportedInputError{Input: in, Reason: "nil file"}
		}
		if !file.Supported(f.registry, v.File.Name()) {
			return nil, "", &UnsupportedInputError{Input: in, Reason: "no decoder for " + v.File.Name()}
		}
		return file.NewFromHandle(v.File, f.fileOptions()...), "file", nil

	case PushStreamInput:
		if v.Stream == nil {
			return nil, "", &UnsupportedInputError{Input: in, Reason: "nil stream"}
		}
		return stream.NewPushProducer(v.Stream, logger), "push-stream", nil

	case PullStreamInput:
		if v.Callback == nil {
			return nil, "", &UnsupportedInputError{Input: in, Reason: "nil callback"}
		}
		p, err := stream.NewPullProducer(v.Callback, f.cfg.Format, logger)
		if err != nil {
			return nil, "", fmt.Errorf("speechsdk: %w", err)
		}
		return p, "pull-stream", nil

	default:
		return nil, "", &UnsupportedInputError{Input: in}
	}
}

func (f *Factory) fileOptions() []file.Option {
	return []file.Option{
		file.WithRegistry(f.registry),
		file.WithFormat(f.cfg.Format),
		file.WithLogger(f.logger),
	}
}

// FromMicrophone builds a source on the configured microphone.
func (f *Factory) FromMicrophone() (*source.Source, error) {
	return f.New(MicrophoneInput{})
}

// FromFile builds a source on a file given as a path string or an open
// *os.File.
func (f *Factory) FromFile(ref any) (*source.Source, error) {
	switch v := ref.(type) {
	case string:
		return f.New(FileInput{Path: v})
	case *os.File:
		return f.New(FileHandleInput{File: v})
	default:
		return nil, &UnsupportedInputError{Input: ref}
	}
}

// FromStream builds a source on a *stream.PushStream or a
// stream.PullCallback.
func (f *Factory) FromStream(v any) (*source.Source, error) {
	switch s := v.(type) {
	case *stream.PushStream:
		return f.New(PushStreamInput{Stream: s})
	case stream.PullCallback:
		return f.New(PullStreamInput{Callback: s})
	default:
		return nil, &UnsupportedInputError{Input: v}
	}
}

var defaultFactory = sync.OnceValues(func() (*Factory, error) {
	return NewFactory()
})

// FromMicrophone builds a source on the default microphone with the
// default configuration.
func FromMicrophone() (*source.Source, error) {
	f, err := defaultFactory()
	if err != nil {
		return nil, err
	}
	return f.FromMicrophone()
}

// FromFile builds a source on a file with the default configuration.
func FromFile(ref any) (*source.Source, error) {
	f, err := defaultFactory()
	if err != nil {
		return nil, err
	}
	return f.FromFile(ref)
}

// FromStream builds a source on an application stream with the default
// configuration.
func FromStream(v any) (*source.Source, error) {
	f, err := defaultFactory()
	if err != nil {
		return nil, err
	}
	return f.FromStream(v)
}
