// SPDX-License-Identifier: EPL-2.0

// Package speechsdk builds audio sources for speech recognition pipelines.
//
// A source wraps exactly one producer (a microphone, a file or an
// application stream) and shares it between any number of consumer nodes.
// The producer runs only while at least one node is attached.
//
// # Quick Start
//
//	src, err := speechsdk.FromFile("meeting.wav")
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
//	h, err := src.Attach(ctx, "recognizer")
//	if err != nil {
//		return err
//	}
//	pcm, err := io.ReadAll(h)
//
// # Inputs
//
// The factory understands a fixed set of inputs:
//   - MicrophoneInput, via FromMicrophone
//   - FileInput and FileHandleInput, via FromFile with a path or *os.File
//   - PushStreamInput and PullStreamInput, via FromStream with a
//     *stream.PushStream or a stream.PullCallback
//
// Anything else fails with an *UnsupportedInputError.
//
// # Supported Formats
//
// Files are decoded with:
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM 16-bit) via formats/aiff
//
// All audio must be mono 16-bit PCM at the configured sample rate
// (16 kHz by default). Nothing is resampled or remixed.
//
// # Configuration
//
// A Factory takes its settings from a config.Config, usually loaded from
// YAML:
//
//	cfg, err := config.Load("speech.yaml")
//	f, err := speechsdk.NewFactory(
//		speechsdk.WithConfig(cfg),
//		speechsdk.WithLogger(logger),
//	)
//
// # Lifecycle
//
// See package source for the state machine and the event bus.
package speechsdk
