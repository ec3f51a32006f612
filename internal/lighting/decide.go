package lighting

import (
	"math"
	"time"

	"github.com/lwolf/lightctl/internal/config"
)

// never stands in for the time since motion before any motion was seen.
const never = time.Duration(math.MaxInt64)

// State is the controller state carried from one cycle to the next.
type State struct {
	Mode  Mode
	Night bool
	// LastMotion is only meaningful once SeenMotion is set
	LastMotion time.Time
	SeenMotion bool
	// Level is the last value committed to the actuator
	Level int
}

// Reading is what a single cycle sensed.
type Reading struct {
	At     time.Time
	Light  int
	Motion bool
}

// SinceMotion returns the time elapsed between the last motion and now.
func (s *State) SinceMotion(now time.Time) time.Duration {
	if !s.SeenMotion {
		return never
	}
	return now.Sub(s.LastMotion)
}

// Decide updates the day/night latch and the motion timestamp from r and
// returns the mode the light should be in. It never changes s.Mode.
func (s *State) Decide(r Reading, t config.Thresholds) Mode {
	if !s.Night && r.Light < t.NightOn {
		s.Night = true
	} else if s.Night && r.Light > t.DayOn {
		s.Night = false
	}

	if r.Motion {
		s.LastMotion = r.At
		s.SeenMotion = true
	}

	if !s.Night {
		return ModeOff
	}

	elapsed := s.SinceMotion(r.At)
	switch {
	case r.Motion || elapsed < t.Hold:
		return ModeActive
	case elapsed > t.Idle:
		return ModeDim
	default:
		// between hold and idle the light keeps doing what it did
		return s.Mode
	}
}

// TargetLevel is the output level of mode m.
func TargetLevel(m Mode, t config.Thresholds) int {
	switch m {
	case ModeDim:
		return t.DimLevel
	case ModeActive:
		return t.FullLevel
	}
	return 0
}
