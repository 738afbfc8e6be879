// Package telemetry holds the OpenTelemetry instruments recorded by the
// battle engine, the predictor and real-time sessions. Instruments come from
// the global meter provider, which is a no-op until a host installs one.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "battlesim/internal/telemetry"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type Recorder struct {
	battles     metric.Int64Counter
	rounds      metric.Int64Histogram
	trials      metric.Int64Counter
	predictions metric.Int64Counter
	ticks       metric.Int64Counter
}

// NewRecorder builds instruments on m.
func NewRecorder(m metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	var err error
	r.battles, err = m.Int64Counter(
		"battle.concluded",
		metric.WithDescription("Battles concluded, by winner"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating battles counter: %w", err)
	}
	r.rounds, err = m.Int64Histogram(
		"battle.rounds",
		metric.WithDescription("Rounds played per battle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rounds histogram: %w", err)
	}
	r.trials, err = m.Int64Counter(
		"prediction.trials",
		metric.WithDescription("Monte-Carlo trials executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trials counter: %w", err)
	}
	r.predictions, err = m.Int64Counter(
		"prediction.completed",
		metric.WithDescription("Batch predictions completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating predictions counter: %w", err)
	}
	r.ticks, err = m.Int64Counter(
		"realtime.ticks",
		metric.WithDescription("Real-time ticks that performed work"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	return r, nil
}

// Default records on the global meter provider, falling back to a no-op
// meter if instrument creation fails.
func Default() *Recorder {
	r, err := NewRecorder(meter())
	if err != nil {
		r, _ = NewRecorder(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return r
}

func (r *Recorder) BattleConcluded(ctx context.Context, winner string, rounds int) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("winner", winner))
	r.battles.Add(ctx, 1, attrs)
	r.rounds.Record(ctx, int64(rounds))
}

func (r *Recorder) TrialsRun(ctx context.Context, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.trials.Add(ctx, int64(n))
}

func (r *Recorder) PredictionCompleted(ctx context.Context) {
	if r == nil {
		return
	}
	r.predictions.Add(ctx, 1)
}

func (r *Recorder) Tick(ctx context.Context) {
	if r == nil {
		return
	}
	r.ticks.Add(ctx, 1)
}
