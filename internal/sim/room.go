// Package sim provides a synthetic room for running the controller without
// hardware: a daylight curve for the light sensor, an hour dependent motion
// model for the PIR and a lamp that remembers its level.
package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LopatkinEvgeniy/clock"

	"github.com/lwolf/lightctl/internal/sensor"
	"github.com/lwolf/lightctl/internal/sunrise"
)

const (
	// light levels on the controller scale
	darkLevel   = 10
	middayLevel = 180
)

// MotionProbability is the chance of seeing motion in a sample taken at the
// given hour of the day.
func MotionProbability(hour int) float64 {
	switch {
	case hour >= 18 && hour < 23:
		return 0.4
	case hour >= 23 || hour < 5:
		return 0.08
	case hour >= 5 && hour < 7:
		return 0.1
	}
	return 0.2
}

// Room is a light and motion source driven by the clock.
type Room struct {
	Clock    clock.Clock
	TZ       *time.Location
	Schedule *sunrise.Schedule
	Scale    sensor.Scale

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRoom(cl clock.Clock, tz *time.Location, sr sunrise.Sunriser, scale sensor.Scale, seed int64) *Room {
	return &Room{
		Clock:    cl,
		TZ:       tz,
		Schedule: &sunrise.Schedule{Clock: cl, TZ: tz, Sunriser: sr},
		Scale:    scale,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// LightLevel is the ambient light on the controller scale: dark at night,
// a half sine between sunrise and sunset peaking at midday.
func (r *Room) LightLevel() int {
	frac, ok := r.Schedule.Daylight()
	if !ok {
		return darkLevel
	}
	return darkLevel + int(math.Sin(math.Pi*frac)*(middayLevel-darkLevel))
}

// ReadLight returns the raw sensor value for LightLevel.
func (r *Room) ReadLight() int {
	return r.Scale.Raw(r.LightLevel())
}

func (r *Room) ReadMotion() bool {
	p := MotionProbability(r.Clock.Now().In(r.TZ).Hour())
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < p
}

// Lamp is an actuator that only remembers the level it was given.
type Lamp struct {
	mu     sync.Mutex
	level  int
	writes int
}

func (l *Lamp) SetLevel(level int) {
	l.mu.Lock()
	l.level = level
	l.writes++
	l.mu.Unlock()
}

func (l *Lamp) Level() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Lamp) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
