package telemetry

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/lwolf/lightctl/internal/lighting"
)

// Breaker stops calling a failing network sink for a while, so an
// unreachable broker costs the control loop one timeout per trip instead of
// one per cycle.
type Breaker struct {
	Sink Sink
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, sink Sink, fails uint32, open time.Duration) *Breaker {
	return &Breaker{
		Sink: sink,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: open,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= fails
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Info().Str("sink", name).Str("from", from.String()).Str("to", to.String()).Msg("telemetry breaker state changed")
			},
		}),
	}
}

func (b *Breaker) Emit(rec lighting.Record) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.Sink.Emit(rec)
	})
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
