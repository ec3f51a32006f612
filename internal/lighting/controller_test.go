package lighting_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/LopatkinEvgeniy/clock"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/lighting"
	"github.com/lwolf/lightctl/internal/sensor"
)

type fakeLight struct{ level int }

func (f *fakeLight) ReadLight() int { return f.level }

type fakeMotion struct{ on bool }

func (f *fakeMotion) ReadMotion() bool { return f.on }

type recordingLamp struct{ levels []int }

func (l *recordingLamp) SetLevel(level int) { l.levels = append(l.levels, level) }

type fakeClock interface {
	clock.Clock
	Advance(d time.Duration)
}

type rig struct {
	fc     fakeClock
	light  *fakeLight
	motion *fakeMotion
	lamp   *recordingLamp
	ctrl   *lighting.Controller
}

func newRig(t *testing.T, th config.Thresholds) *rig {
	t.Helper()
	cfg := config.Default()
	cfg.Thresholds = th
	r := &rig{
		fc:     clock.NewFakeClockAt(t0),
		light:  &fakeLight{level: 150},
		motion: &fakeMotion{},
		lamp:   &recordingLamp{},
	}
	r.ctrl = lighting.NewController(cfg, r.light, r.motion, r.lamp, r.fc)
	// identity scale, the tests speak in light levels
	r.ctrl.Scale = sensor.Scale{RawMin: 0, RawMax: 200, LevelMax: 200}
	return r
}

// cycles advances the fake clock one step interval before every cycle.
func (r *rig) cycles(n int) lighting.Record {
	var rec lighting.Record
	for i := 0; i < n; i++ {
		r.fc.Advance(r.ctrl.Thresholds.StepInterval)
		rec = r.ctrl.Step()
	}
	return rec
}

func TestMotionAtNightRampsToFull(t *testing.T) {
	r := newRig(t, config.Default().Thresholds)
	r.light.level = 40
	r.motion.on = true

	rec := r.cycles(1)
	if rec.Mode != lighting.ModeActive {
		t.Fatalf("expected active, got %s", rec.Mode)
	}
	if rec.Level != 5 {
		t.Fatalf("expected first ramp step to be 5, got %d", rec.Level)
	}
	rec = r.cycles(39)
	if rec.Level != 220 {
		t.Fatalf("expected full level after 40 steps, got %d", rec.Level)
	}
	if len(r.lamp.levels) != 40 {
		t.Fatalf("expected 40 actuator writes, got %d", len(r.lamp.levels))
	}
	// steady state does not touch the actuator
	r.cycles(100)
	if len(r.lamp.levels) != 40 {
		t.Fatalf("expected no writes once settled, got %d", len(r.lamp.levels))
	}
}

func TestDaylightForcesOff(t *testing.T) {
	r := newRig(t, config.Default().Thresholds)
	r.light.level = 40
	r.motion.on = true
	r.cycles(40)

	r.light.level = 90
	rec := r.cycles(40)
	if rec.Mode != lighting.ModeOff || rec.Level != 0 {
		t.Fatalf("expected off at level 0, got %s at %d", rec.Mode, rec.Level)
	}
	if r.ctrl.State().Night {
		t.Fatal("expected the latch to report day")
	}
	// motion by day never turns the light back on
	for i := 0; i < 50; i++ {
		r.motion.on = i%2 == 0
		if rec := r.cycles(1); rec.Mode != lighting.ModeOff {
			t.Fatalf("cycle %d: expected off by day, got %s", i, rec.Mode)
		}
	}
}

func TestIdleDims(t *testing.T) {
	r := newRig(t, config.Default().Thresholds)
	r.light.level = 30
	r.motion.on = true
	r.cycles(40)
	r.motion.on = false

	// still active through hold and the band after it
	for elapsed := time.Second; elapsed <= 120*time.Second; elapsed += time.Second {
		r.fc.Advance(time.Second)
		if rec := r.ctrl.Step(); rec.Mode != lighting.ModeActive {
			t.Fatalf("expected active %v after motion, got %s", elapsed, rec.Mode)
		}
	}
	r.fc.Advance(10 * time.Second)
	rec := r.ctrl.Step()
	if rec.Mode != lighting.ModeDim {
		t.Fatalf("expected dim after 130s idle, got %s", rec.Mode)
	}
	rec = r.ctrl.Settle()
	if rec.Level != 60 {
		t.Fatalf("expected dim level 60, got %d", rec.Level)
	}
	// stays dim until motion recurs
	rec = r.cycles(500)
	if rec.Mode != lighting.ModeDim {
		t.Fatalf("expected to stay dim, got %s", rec.Mode)
	}
	r.motion.on = true
	if rec = r.cycles(1); rec.Mode != lighting.ModeActive {
		t.Fatalf("expected motion to reactivate, got %s", rec.Mode)
	}
}

func TestModeChangeRestartsRampFromCurrentLevel(t *testing.T) {
	r := newRig(t, config.Default().Thresholds)
	r.light.level = 30
	r.motion.on = true
	rec := r.cycles(10)
	if rec.Level != 55 {
		t.Fatalf("expected 55 after 10 steps, got %d", rec.Level)
	}

	r.light.level = 120
	r.motion.on = false
	rec = r.cycles(1)
	if rec.Mode != lighting.ModeOff || rec.Level != 54 {
		t.Fatalf("expected off ramp to start from 55, got %s at %d", rec.Mode, rec.Level)
	}
	if st := r.ctrl.Status(); st.RampRemaining != 39 || st.Target != 0 {
		t.Fatalf("expected 39 steps left toward 0, got %+v", st)
	}
	rec = r.cycles(39)
	if rec.Level != 0 {
		t.Fatalf("expected 0 at the end of the ramp, got %d", rec.Level)
	}
	// 10 steps up, 40 steps down, nothing lost or repeated
	if len(r.lamp.levels) != 50 {
		t.Fatalf("expected 50 writes, got %d", len(r.lamp.levels))
	}
	for i, v := range r.lamp.levels[10:] {
		if v > 55 || v < 0 {
			t.Fatalf("write %d: %d outside [0,55]", i, v)
		}
	}
}

func TestZeroRampJumps(t *testing.T) {
	th := config.Default().Thresholds
	th.Ramp = 0
	r := newRig(t, th)
	r.light.level = 30
	r.motion.on = true
	rec := r.cycles(1)
	if rec.Level != 220 || len(r.lamp.levels) != 1 {
		t.Fatalf("expected a single jump to 220, got %d after %d writes", rec.Level, len(r.lamp.levels))
	}
}

func TestColdStartDims(t *testing.T) {
	r := newRig(t, config.Default().Thresholds)
	r.light.level = 30
	rec := r.cycles(1)
	if rec.Mode != lighting.ModeDim {
		t.Fatalf("expected dim on a dark cold start, got %s", rec.Mode)
	}
	if rec = r.ctrl.Settle(); rec.Level != 60 {
		t.Fatalf("expected settle to reach 60, got %d", rec.Level)
	}
	if r.ctrl.Settle().Level != 60 {
		t.Fatal("expected settle without a ramp to be a no-op")
	}
}

func TestRecordAndStatus(t *testing.T) {
	r := newRig(t, config.Default().Thresholds)
	r.light.level = 42
	r.motion.on = true
	rec := r.cycles(1)
	if rec.Light != 42 || !rec.Motion || !rec.At.Equal(t0.Add(20*time.Millisecond)) {
		t.Fatalf("unexpected record %+v", rec)
	}
	st := r.ctrl.Status()
	if !st.Night || st.Mode != lighting.ModeActive || st.Level != rec.Level || st.Target != 220 {
		t.Fatalf("unexpected status %+v", st)
	}
	if !st.LastMotion.Equal(rec.At) {
		t.Fatalf("expected last motion %v, got %v", rec.At, st.LastMotion)
	}
}

func TestRawReadingsAreNormalized(t *testing.T) {
	r := newRig(t, config.Default().Thresholds)
	r.ctrl.Scale = sensor.NewScale(config.Default().Sensor)
	r.light.level = 2000
	if rec := r.cycles(1); rec.Light != 200 || rec.Mode != lighting.ModeOff {
		t.Fatalf("expected clamped bright reading, got %+v", rec)
	}
	r.light.level = 204
	if rec := r.cycles(1); rec.Light != 39 || rec.Mode != lighting.ModeDim {
		t.Fatalf("expected dark reading to dim, got %+v", rec)
	}
}

func TestLevelGaugePerController(t *testing.T) {
	lamps := map[string]*recordingLamp{}
	ctrls := map[string]*lighting.Controller{}
	fc := clock.NewFakeClockAt(t0)
	for _, zone := range []string{"hallway", "stairs"} {
		cfg := config.Default()
		cfg.Telemetry.Zone = zone
		lamps[zone] = &recordingLamp{}
		ctrls[zone] = lighting.NewController(cfg, &fakeLight{level: 40}, &fakeMotion{on: true}, lamps[zone], fc)
		ctrls[zone].Scale = sensor.Scale{RawMin: 0, RawMax: 200, LevelMax: 200}
		ctrls[zone].Begin()
	}
	ctrls["hallway"].Step()
	ctrls["hallway"].Settle()

	tests := map[string]string{
		"hallway": `lightctl_output_level{zone="hallway"} 220`,
		"stairs":  `lightctl_output_level{zone="stairs"} 0`,
	}
	for zone, exp := range tests {
		var buf bytes.Buffer
		ctrls[zone].WriteMetrics(&buf)
		if got := strings.TrimSpace(buf.String()); got != exp {
			t.Fatalf("zone %s: expected %q, got %q", zone, exp, got)
		}
	}
}
