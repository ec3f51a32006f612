package telemetry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/lwolf/lightctl/internal/lighting"
)

// Async emits to a sink from its own goroutine. Emit only queues the record
// and never waits on the sink; records arriving while the queue is full are
// dropped and counted.
type Async struct {
	Name string
	Sink Sink

	queue   chan lighting.Record
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
	drops   *metrics.Counter
	errs    *metrics.Counter
}

func NewAsync(name string, sink Sink, size int) *Async {
	a := &Async{
		Name:  name,
		Sink:  sink,
		queue: make(chan lighting.Record, size),
		done:  make(chan struct{}),
		drops: metrics.GetOrCreateCounter(fmt.Sprintf(`lightctl_sink_dropped_total{sink=%q}`, name)),
		errs:  metrics.GetOrCreateCounter(fmt.Sprintf(`lightctl_sink_errors_total{sink=%q}`, name)),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for rec := range a.queue {
		err := a.Sink.Emit(rec)
		if err == nil {
			continue
		}
		a.errs.Inc()
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Debug().Str("sink", a.Name).Msg("sink breaker open, record skipped")
			continue
		}
		log.Warn().Err(err).Str("sink", a.Name).Msg("failed to emit telemetry")
	}
}

// Emit must not be called after Close.
func (a *Async) Emit(rec lighting.Record) error {
	select {
	case a.queue <- rec:
	default:
		a.dropped.Add(1)
		a.drops.Inc()
	}
	return nil
}

// Dropped is the number of records lost to a full queue.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Close stops accepting records and waits for the queued ones to be emitted.
func (a *Async) Close() {
	a.once.Do(func() { close(a.queue) })
	<-a.done
}
