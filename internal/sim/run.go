package sim

import (
	"time"

	"github.com/LopatkinEvgeniy/clock"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/lighting"
	"github.com/lwolf/lightctl/internal/summary"
	"github.com/lwolf/lightctl/internal/telemetry"
)

// FakeClock is the clock the simulation advances between cycles.
type FakeClock interface {
	clock.Clock
	Advance(d time.Duration)
}

type Options struct {
	Days int
	Step time.Duration
	// NightHours is how long the always-on baseline burns each day
	NightHours float64
	Power      telemetry.PowerModel
}

type Result struct {
	Samples  int
	PowerW   []float64
	Energy   summary.Comparison
	Modes    map[lighting.Mode]int
	LastSeen lighting.Record
}

// Run cycles ctrl once per Step for Days days, starting at the fake clock's
// current time. Every ramp is settled inside its cycle and every record is
// handed to sink.
func Run(ctrl *lighting.Controller, fc FakeClock, opts Options, sink telemetry.Sink) Result {
	res := Result{Modes: map[lighting.Mode]int{}}
	end := fc.Now().Add(time.Duration(opts.Days) * 24 * time.Hour)
	ctrl.Begin()
	for fc.Now().Before(end) {
		ctrl.Step()
		rec := ctrl.Settle()
		if err := sink.Emit(rec); err != nil {
			log.Warn().Err(err).Time("ts", rec.At).Msg("failed to record simulated cycle")
		}
		res.Samples++
		res.PowerW = append(res.PowerW, opts.Power.Watts(rec.Level))
		res.Modes[rec.Mode]++
		res.LastSeen = rec
		fc.Advance(opts.Step)
	}
	res.Energy = summary.Compare(
		summary.NightBaselineWh(opts.Power.FullWatts, opts.NightHours, opts.Days),
		summary.EnergyWh(res.PowerW, opts.Step.Minutes()),
	)
	return res
}
