package lighting

import "time"

const (
	minLevel = 0
	maxLevel = 255
)

// Ramp linearly interpolates the output level from a start to a target
// value in a fixed number of steps. It does not sleep: the owner calls Next
// once per step interval, so a ramp can be resumed or restarted between
// cycles.
type Ramp struct {
	start  int
	target int
	steps  int
	step   int
	active bool
}

// Start begins a ramp from the current level to target. A duration of zero
// or less makes a single step straight to the target. Any ramp already in
// flight is discarded, so the caller must pass the level it last committed.
func (r *Ramp) Start(from, target int, duration, interval time.Duration) {
	steps := 1
	if duration > 0 && interval > 0 {
		steps = int(duration / interval)
		if steps < 1 {
			steps = 1
		}
	}
	r.start = clampLevel(from)
	r.target = clampLevel(target)
	r.steps = steps
	r.step = 0
	r.active = true
}

// Next returns the level of the next step and whether it was the last one.
// Calling Next on a finished ramp returns the target again without
// advancing.
func (r *Ramp) Next() (int, bool) {
	if !r.active {
		return r.target, true
	}
	r.step++
	// integer division truncates toward zero for both ramp directions
	level := clampLevel(r.start + (r.target-r.start)*r.step/r.steps)
	if r.step >= r.steps {
		r.active = false
		return r.target, true
	}
	return level, false
}

func (r *Ramp) Active() bool { return r.active }

func (r *Ramp) Target() int { return r.target }

// Remaining is the number of steps not yet taken.
func (r *Ramp) Remaining() int {
	if !r.active {
		return 0
	}
	return r.steps - r.step
}

func clampLevel(v int) int {
	if v < minLevel {
		return minLevel
	}
	if v > maxLevel {
		return maxLevel
	}
	return v
}
