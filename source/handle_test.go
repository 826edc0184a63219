// SPDX-License-Identifier: EPL-2.0

package source

import (
	"context"
	"io"
	"slices"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/chousg/cognitive-services-speech-sdk/audio"
	"github.com/chousg/cognitive-services-speech-sdk/internal/audiotest"
	"github.com/chousg/cognitive-services-speech-sdk/internal/observe"
)

func TestStreamHandle_ReadAcrossFrames(t *testing.T) {
	t.Parallel()

	h := newStreamHandle("n", audio.DefaultFormat, 4)
	h.offer(audio.Frame{Data: []byte{1, 2, 3}})
	h.offer(audio.Frame{Data: []byte{4, 5}})
	h.release()

	var got []byte
	buf := make([]byte, 2)
	for {
		n, err := h.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if want := []byte{1, 2, 3, 4, 5}; !slices.Equal(got, want) {
		t.Errorf("Read() = %v, want %v", got, want)
	}
}

func TestStreamHandle_OfferAndRelease(t *testing.T) {
	t.Parallel()

	h := newStreamHandle("n", audio.DefaultFormat, 1)
	if !h.offer(audio.Frame{Seq: 0}) {
		t.Fatal("offer() into empty queue = false")
	}
	if h.offer(audio.Frame{Seq: 1}) {
		t.Error("offer() into full queue = true")
	}
	if got := h.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}

	h.release()
	h.release()
	if h.offer(audio.Frame{Seq: 2}) {
		t.Error("offer() after release = true")
	}
	if got := h.Dropped(); got != 1 {
		t.Errorf("Dropped() after release = %d, want 1", got)
	}

	f, ok := <-h.Frames()
	if !ok || f.Seq != 0 {
		t.Errorf("queued frame = %+v, %v; want seq 0", f, ok)
	}
	if _, ok := <-h.Frames(); ok {
		t.Error("Frames() not closed after release")
	}
}

func TestSource_Metrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()
	p := audiotest.NewProducer(audio.DefaultFormat)
	s := New(p, WithMetrics(m), WithProducerKind("fake"))

	for _, id := range []string{"a", "b"} {
		if _, err := s.Attach(ctx, id); err != nil {
			t.Fatalf("Attach(%s) error = %v", id, err)
		}
	}
	for _, id := range []string{"a", "b"} {
		if err := s.Detach(ctx, id); err != nil {
			t.Fatalf("Detach(%s) error = %v", id, err)
		}
	}

	failing := audiotest.NewProducer(audio.DefaultFormat)
	failing.StartErr = io.ErrUnexpectedEOF
	f := New(failing, WithMetrics(m), WithProducerKind("fake"))
	_ = f.TurnOn(ctx)

	_ = s.Close()
	_ = f.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	want := map[string]int64{
		"speechsdk.source.activations":    1,
		"speechsdk.source.deactivations":  1,
		"speechsdk.source.faults":         1,
		"speechsdk.source.attached_nodes": 0,
	}
	got := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				got[met.Name] += dp.Value
			}
		}
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s = %d, want %d", name, got[name], w)
		}
	}
}
