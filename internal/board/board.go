// Package board talks to the relay/IO board that carries the light sensor,
// the PIR and the dimmer setpoint, over SNMP.
package board

import (
	"sync"

	"github.com/LopatkinEvgeniy/clock"
	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/snmp"
)

var (
	// Number of SNMP calls
	requestsTotal = metrics.NewCounter("requests_total")
	// Number of failed SNMP calls
	requestErrors = metrics.NewCounter("requests_errors_total")
	// SNMP call duration
	requestDuration = metrics.NewSummary(`requests_duration_seconds`)
)

// Board implements the light source, motion source and actuator of the
// controller. Reads never fail: on error the last good value is returned
// and the next cycle tries again.
type Board struct {
	Snmp  snmp.GetterSetter
	Clock clock.Clock
	Oids  config.Board

	mu     sync.Mutex
	light  int
	motion bool
	level  int
	// a poll whose motion was not read yet
	polled bool
}

func New(gs snmp.GetterSetter, cl clock.Clock, oids config.Board) *Board {
	return &Board{Snmp: gs, Clock: cl, Oids: oids}
}

// poll reads the light and motion oids in a single request. Values missing
// from the response keep their previous reading.
func (b *Board) poll() {
	start := b.Clock.Now()
	requestsTotal.Inc()
	values, err := snmp.GetInts(b.Snmp, b.Oids.LightOid, b.Oids.MotionOid)
	if err != nil {
		requestErrors.Inc()
		log.Error().Err(err).Msg("failed to read from the board")
	} else {
		requestDuration.UpdateDuration(start)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := values[b.Oids.LightOid]; ok {
		b.light = int(v)
	}
	if v, ok := values[b.Oids.MotionOid]; ok {
		b.motion = v == 1
	}
	b.polled = true
}

// ReadLight polls the board. The motion value of the same poll is kept for
// the next ReadMotion, so a cycle costs a single request.
func (b *Board) ReadLight() int {
	b.poll()
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.light
}

// ReadMotion returns the motion of the poll done by ReadLight, or polls when
// it was already consumed.
func (b *Board) ReadMotion() bool {
	b.mu.Lock()
	polled := b.polled
	b.mu.Unlock()
	if !polled {
		b.poll()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polled = false
	return b.motion
}

// SetLevel writes the dimmer setpoint. A failed write is logged and counted;
// the controller keeps its own idea of the level.
func (b *Board) SetLevel(level int) {
	log.Debug().Str("oid", b.Oids.LevelOid).Int("level", level).Msg("changing remote level")
	start := b.Clock.Now()
	requestsTotal.Inc()
	if err := snmp.SetInt(b.Snmp, b.Oids.LevelOid, level); err != nil {
		requestErrors.Inc()
		log.Error().Err(err).Int("level", level).Msg("failed to set level on the board")
		return
	}
	requestDuration.UpdateDuration(start)
	b.mu.Lock()
	b.level = level
	b.mu.Unlock()
}

// Level returns the last level the board acknowledged.
func (b *Board) Level() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level
}
