// Package telemetry ships per-cycle controller records to logs, files and
// message buses.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/lighting"
)

// Sink receives one record per control cycle.
type Sink interface {
	Emit(rec lighting.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec lighting.Record) error

func (f SinkFunc) Emit(rec lighting.Record) error { return f(rec) }

// Named attaches a name to a sink for logs and metrics.
type Named struct {
	Name string
	Sink Sink
}

// Fanout emits to every sink. A failing sink is logged and counted and
// never keeps the others from receiving the record.
type Fanout []Named

func (f Fanout) Emit(rec lighting.Record) error {
	var errs []error
	for _, s := range f {
		if err := s.Sink.Emit(rec); err != nil {
			metrics.GetOrCreateCounter(fmt.Sprintf(`lightctl_sink_errors_total{sink=%q}`, s.Name)).Inc()
			log.Warn().Err(err).Str("sink", s.Name).Msg("failed to emit telemetry")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// LogSink writes every record as a debug event.
type LogSink struct{}

func (LogSink) Emit(rec lighting.Record) error {
	log.Debug().
		Time("ts", rec.At).
		Int("lux", rec.Light).
		Bool("motion", rec.Motion).
		Str("mode", rec.Mode.String()).
		Int("pwm", rec.Level).
		Msg("cycle")
	return nil
}
