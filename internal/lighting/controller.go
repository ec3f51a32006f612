package lighting

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LopatkinEvgeniy/clock"
	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/sensor"
)

// Actuator accepts an output level in [0,255]. Writes are assumed to be
// synchronous and to always succeed.
type Actuator interface {
	SetLevel(level int)
}

// Record is the telemetry of a single cycle.
type Record struct {
	At     time.Time
	Light  int
	Motion bool
	Mode   Mode
	Level  int
}

// Status is a point in time copy of the controller state, safe to read from
// other goroutines.
type Status struct {
	Mode          Mode      `json:"mode"`
	Night         bool      `json:"night"`
	Level         int       `json:"level"`
	Target        int       `json:"target"`
	RampRemaining int       `json:"ramp_remaining"`
	LastMotion    time.Time `json:"last_motion"`
	Light         int       `json:"light"`
	Motion        bool      `json:"motion"`
	At            time.Time `json:"at"`
}

var cyclesTotal = metrics.NewCounter("lightctl_cycles_total")

// Controller runs the sense, decide, actuate cycle. Step must only be called
// from one goroutine; Status may be called from anywhere.
type Controller struct {
	Light      sensor.LightSource
	Motion     sensor.MotionSource
	Output     Actuator
	Scale      sensor.Scale
	Thresholds config.Thresholds
	Clock      clock.Clock
	Zone       string

	// output level gauge of this controller
	gauges *metrics.Set
	level  atomic.Int64

	state State
	ramp  Ramp
	last  Record

	mu     sync.RWMutex
	status Status
}

func NewController(cfg config.Config, light sensor.LightSource, motion sensor.MotionSource, out Actuator, cl clock.Clock) *Controller {
	c := &Controller{
		Light:      light,
		Motion:     motion,
		Output:     out,
		Scale:      sensor.NewScale(cfg.Sensor),
		Thresholds: cfg.Thresholds,
		Clock:      cl,
		Zone:       cfg.Telemetry.Zone,
		gauges:     metrics.NewSet(),
	}
	c.gauges.NewGauge(fmt.Sprintf(`lightctl_output_level{zone=%q}`, c.Zone), func() float64 {
		return float64(c.level.Load())
	})
	return c
}

// WriteMetrics writes the metrics owned by this controller in Prometheus
// text format.
func (c *Controller) WriteMetrics(w io.Writer) {
	c.gauges.WritePrometheus(w)
}

// Begin drives the output to 0 so the first ramp starts from a known level.
func (c *Controller) Begin() {
	c.commit(0)
	c.publish(Reading{At: c.Clock.Now()})
}

// State returns a copy of the state carried between cycles.
func (c *Controller) State() State {
	return c.state
}

// Step runs one control cycle and returns its telemetry. The ramp advances
// by at most one step per cycle.
func (c *Controller) Step() Record {
	now := c.Clock.Now()
	r := Reading{
		At:     now,
		Light:  c.Scale.Normalize(c.Light.ReadLight()),
		Motion: c.Motion.ReadMotion(),
	}

	wasNight := c.state.Night
	mode := c.state.Decide(r, c.Thresholds)
	if c.state.Night != wasNight {
		log.Debug().Bool("night", c.state.Night).Int("light", r.Light).Msg("day/night latch flipped")
	}
	if mode != c.state.Mode {
		c.transition(mode)
	}
	if c.ramp.Active() {
		level, _ := c.ramp.Next()
		c.commit(level)
	}
	cyclesTotal.Inc()

	c.last = Record{At: now, Light: r.Light, Motion: r.Motion, Mode: c.state.Mode, Level: c.state.Level}
	c.publish(r)
	return c.last
}

// Settle runs the remaining steps of the ramp in flight, if any, and returns
// the last cycle's record with the settled output level. It is meant for
// callers whose cycle is much longer than the ramp, like the simulator.
func (c *Controller) Settle() Record {
	for c.ramp.Active() {
		level, _ := c.ramp.Next()
		c.commit(level)
	}
	c.last.Level = c.state.Level
	c.publish(Reading{At: c.last.At, Light: c.last.Light, Motion: c.last.Motion})
	return c.last
}

func (c *Controller) transition(mode Mode) {
	target := TargetLevel(mode, c.Thresholds)
	log.Debug().
		Str("from", c.state.Mode.String()).
		Str("to", mode.String()).
		Int("level", c.state.Level).
		Int("target", target).
		Msg("mode changed")
	metrics.GetOrCreateCounter(fmt.Sprintf(`lightctl_mode_changes_total{mode=%q}`, mode.String())).Inc()
	c.state.Mode = mode
	c.ramp.Start(c.state.Level, target, c.Thresholds.Ramp, c.Thresholds.StepInterval)
}

func (c *Controller) commit(level int) {
	level = clampLevel(level)
	c.Output.SetLevel(level)
	c.state.Level = level
	c.level.Store(int64(level))
}

func (c *Controller) publish(r Reading) {
	c.mu.Lock()
	c.status = Status{
		Mode:          c.state.Mode,
		Night:         c.state.Night,
		Level:         c.state.Level,
		Target:        TargetLevel(c.state.Mode, c.Thresholds),
		RampRemaining: c.ramp.Remaining(),
		Light:         r.Light,
		Motion:        r.Motion,
		At:            r.At,
	}
	if c.state.SeenMotion {
		c.status.LastMotion = c.state.LastMotion
	}
	c.mu.Unlock()
}

func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
