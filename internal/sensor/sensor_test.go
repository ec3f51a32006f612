package sensor_test

import (
	"testing"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/sensor"
)

func TestNormalize(t *testing.T) {
	scale := sensor.NewScale(config.Default().Sensor)
	tests := map[string]struct {
		raw int
		exp int
	}{
		"bottom of the range":   {raw: 0, exp: 0},
		"top of the range":      {raw: 1023, exp: 200},
		"middle truncates down": {raw: 512, exp: 100},
		"below range clamps":    {raw: -40, exp: 0},
		"above range clamps":    {raw: 4095, exp: 200},
		"just under night on":   {raw: 306, exp: 59},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := scale.Normalize(tc.raw); got != tc.exp {
				t.Fatalf("expected Normalize(%d) to be %d, got %d", tc.raw, tc.exp, got)
			}
		})
	}
}

func TestNormalizeOffsetRange(t *testing.T) {
	scale := sensor.Scale{RawMin: 100, RawMax: 300, LevelMax: 100}
	if got := scale.Normalize(200); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := scale.Normalize(50); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestRawRoundTrip(t *testing.T) {
	scale := sensor.NewScale(config.Default().Sensor)
	for level := 0; level <= 200; level++ {
		raw := scale.Raw(level)
		// Raw rounds down so the level can come back one lower at most
		if got := scale.Normalize(raw); got != level && got != level-1 {
			t.Fatalf("level %d -> raw %d -> level %d", level, raw, got)
		}
	}
}
