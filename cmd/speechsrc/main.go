// SPDX-License-Identifier: EPL-2.0

// Command speechsrc records a source to a WAV file.
//
//	speechsrc -file meeting.wav -out copy.wav
//	speechsrc -duration 5s -out mic.wav          # needs -tags portaudio
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	speechsdk "github.com/chousg/cognitive-services-speech-sdk"
	"github.com/chousg/cognitive-services-speech-sdk/config"
	"github.com/chousg/cognitive-services-speech-sdk/formats/wav"
	"github.com/chousg/cognitive-services-speech-sdk/source"
)

const nodeID = "speechsrc"

func main() {
	var (
		inPath   = flag.String("file", "", "audio file to read (default: microphone)")
		outPath  = flag.String("out", "out.wav", "WAV file to write")
		duration = flag.Duration("duration", 0, "stop after this long (0: until end of input or interrupt)")
		cfgPath  = flag.String("config", "", "YAML configuration file")
		debug    = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	logger, err := newLogger(cfg, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *inPath, *outPath, *duration); err != nil {
		logger.Fatal("speechsrc failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	return zc.Build()
}

func run(cfg *config.Config, logger *zap.Logger, inPath, outPath string, duration time.Duration) error {
	factory, err := speechsdk.NewFactory(
		speechsdk.WithConfig(cfg),
		speechsdk.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var src *source.Source
	if inPath != "" {
		src, err = factory.FromFile(inPath)
	} else {
		src, err = factory.FromMicrophone()
	}
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := wav.NewWriter(out, src.Format())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	events := src.Events().Subscribe()
	defer events.Unsubscribe()

	h, err := src.Attach(ctx, nodeID)
	if err != nil {
		return err
	}
	logger.Info("recording",
		zap.String("source", src.ID()),
		zap.String("producer", src.Kind()),
		zap.Stringer("format", src.Format()),
		zap.String("out", outPath),
	)

	done := make(chan struct{})
	g := new(errgroup.Group)

	g.Go(func() error {
		defer close(done)
		n, err := io.Copy(w, h)
		logger.Info("feed ended", zap.Int64("bytes", n), zap.Uint64("dropped", h.Dropped()))
		return err
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-done:
		}
		return src.Detach(context.Background(), nodeID)
	})

	g.Go(func() error {
		for ev := range events.C() {
			if ev.Kind == source.EventError {
				logger.Warn("source error", zap.Error(ev.Err))
			}
			if ev.Kind == source.EventStopped || ev.State.Terminal() {
				return nil
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", outPath, err)
	}

	logger.Info("wrote", zap.String("out", outPath))
	return nil
}
