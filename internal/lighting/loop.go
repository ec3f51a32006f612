package lighting

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Emitter receives the record of every cycle.
type Emitter interface {
	Emit(rec Record) error
}

// Run drives the controller from a ticker at the configured step interval
// until ctx is done. Sink errors are logged and never stop the loop.
func (c *Controller) Run(ctx context.Context, sink Emitter) {
	c.Begin()
	ticker := c.Clock.NewTicker(c.Thresholds.StepInterval)
	defer ticker.Stop()
	log.Info().Dur("interval", c.Thresholds.StepInterval).Msg("control loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("control loop stopped")
			return
		case <-ticker.Chan():
			rec := c.Step()
			if err := sink.Emit(rec); err != nil {
				log.Debug().Err(err).Msg("telemetry not fully delivered")
			}
		}
	}
}
