// SPDX-License-Identifier: EPL-2.0

// Package config loads the YAML configuration used to build sources.
//
//	format:
//	  sample_rate: 16000
//	  bits_per_sample: 16
//	  channels: 1
//	frame_duration: 20ms
//	handle_buffer: 64
//	log_level: info
//	microphone:
//	  device: ""
//	file:
//	  extensions: [wav, aiff, aif, mp3, ogg]
//
// Omitted keys keep their Default values; unknown keys are rejected.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
)

// Config is the top-level configuration.
type Config struct {
	// Format every producer must deliver.
	Format audio.Format `yaml:"format"`

	// FrameDuration is how much audio each frame of the feed carries.
	FrameDuration time.Duration `yaml:"frame_duration"`

	// HandleBuffer is the number of frames queued per attached node.
	HandleBuffer int `yaml:"handle_buffer"`

	// LogLevel is a zap level name.
	LogLevel string `yaml:"log_level"`

	Microphone MicrophoneConfig `yaml:"microphone"`
	File       FileConfig       `yaml:"file"`
}

// MicrophoneConfig selects the capture device.
type MicrophoneConfig struct {
	// Device name; empty for the system default.
	Device string `yaml:"device"`
}

// FileConfig lists the file extensions the factory accepts.
type FileConfig struct {
	Extensions []string `yaml:"extensions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format:        audio.DefaultFormat,
		FrameDuration: 20 * time.Millisecond,
		HandleBuffer:  64,
		LogLevel:      "info",
		File: FileConfig{
			Extensions: []string{"wav", "aiff", "aif", "mp3", "ogg"},
		},
	}
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over Default and validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns a joined error listing every invalid value in cfg.
func Validate(cfg *Config) error {
	var errs []error

	if err := cfg.Format.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("format: %w", err))
	}
	if cfg.FrameDuration <= 0 {
		errs = append(errs, fmt.Errorf("frame_duration %v must be positive", cfg.FrameDuration))
	} else if cfg.Format.SampleRate > 0 && cfg.Format.BytesFor(cfg.FrameDuration) == 0 {
		errs = append(errs, fmt.Errorf("frame_duration %v is shorter than one sample", cfg.FrameDuration))
	}
	if cfg.HandleBuffer <= 0 {
		errs = append(errs, fmt.Errorf("handle_buffer %d must be positive", cfg.HandleBuffer))
	}
	if cfg.LogLevel != "" {
		if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}

	known := []string{"wav", "aiff", "aif", "mp3", "ogg", "oga"}
	for i, ext := range cfg.File.Extensions {
		if !slices.Contains(known, ext) {
			errs = append(errs, fmt.Errorf("file.extensions[%d] %q is not supported; valid values: %v", i, ext, known))
		}
	}

	return errors.Join(errs...)
}

// Level returns the parsed log level, Info when unset.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
