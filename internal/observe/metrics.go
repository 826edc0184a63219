// SPDX-License-Identifier: EPL-2.0

// Package observe holds the OpenTelemetry instruments recorded by sources.
//
// Instruments are created from an explicit metric.MeterProvider so tests can
// read them through an SDK ManualReader without touching the global provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all SDK metrics.
const meterName = "github.com/chousg/cognitive-services-speech-sdk"

// Metrics holds the source lifecycle instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// Activations counts successful producer starts. Attribute "producer".
	Activations metric.Int64Counter

	// Deactivations counts successful producer stops. Attribute "producer".
	Deactivations metric.Int64Counter

	// Faults counts failed starts and stops. Attributes "producer", "op".
	Faults metric.Int64Counter

	// AttachedNodes tracks nodes currently attached across all sources.
	AttachedNodes metric.Int64UpDownCounter

	// DroppedFrames counts frames a node's queue had no room for.
	DroppedFrames metric.Int64Counter
}

// NewMetrics creates the instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Activations, err = m.Int64Counter("speechsdk.source.activations",
		metric.WithDescription("Producer activations that reached the running state."),
	); err != nil {
		return nil, err
	}
	if met.Deactivations, err = m.Int64Counter("speechsdk.source.deactivations",
		metric.WithDescription("Producer deactivations that reached the stopped state."),
	); err != nil {
		return nil, err
	}
	if met.Faults, err = m.Int64Counter("speechsdk.source.faults",
		metric.WithDescription("Producer start or stop failures."),
	); err != nil {
		return nil, err
	}
	if met.AttachedNodes, err = m.Int64UpDownCounter("speechsdk.source.attached_nodes",
		metric.WithDescription("Nodes currently attached to a source."),
	); err != nil {
		return nil, err
	}
	if met.DroppedFrames, err = m.Int64Counter("speechsdk.source.dropped_frames",
		metric.WithDescription("Frames dropped because a node's queue was full."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Default returns instruments from the global meter provider, or no-op
// instruments when the global provider cannot create them.
var Default = sync.OnceValue(func() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return Noop()
	}
	return m
})

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// ProducerAttr is the attribute set used by the per-producer counters.
func ProducerAttr(kind string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("producer", kind))
}

// RecordFault counts a failed lifecycle operation.
func (m *Metrics) RecordFault(ctx context.Context, kind, op string) {
	m.Faults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("producer", kind),
		attribute.String("op", op),
	))
}
