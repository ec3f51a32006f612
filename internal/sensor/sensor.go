package sensor

import "github.com/lwolf/lightctl/internal/config"

// LightSource returns a raw ambient light reading, e.g. a 10-bit ADC value.
type LightSource interface {
	ReadLight() int
}

// MotionSource reports whether the PIR currently sees motion.
type MotionSource interface {
	ReadMotion() bool
}

// Scale maps raw light readings onto the coarse light level scale used by
// the controller.
type Scale struct {
	RawMin   int
	RawMax   int
	LevelMax int
}

func NewScale(cfg config.Sensor) Scale {
	return Scale{RawMin: cfg.RawMin, RawMax: cfg.RawMax, LevelMax: cfg.LevelMax}
}

// Normalize clamps raw into [RawMin, RawMax] and remaps it onto
// [0, LevelMax] with integer arithmetic.
func (s Scale) Normalize(raw int) int {
	if raw < s.RawMin {
		raw = s.RawMin
	}
	if raw > s.RawMax {
		raw = s.RawMax
	}
	return (raw - s.RawMin) * s.LevelMax / (s.RawMax - s.RawMin)
}

// Raw is the inverse of Normalize, rounded down.
func (s Scale) Raw(level int) int {
	return s.RawMin + level*(s.RawMax-s.RawMin)/s.LevelMax
}
