package sunrise_test

import (
	"math"
	"testing"
	"time"

	"github.com/LopatkinEvgeniy/clock"

	"github.com/lwolf/lightctl/internal/sunrise"
)

func TestDaylight(t *testing.T) {
	fc := clock.NewFakeClockAt(time.Date(2023, time.September, 1, 3, 0, 0, 0, time.UTC))
	s := &sunrise.Schedule{
		Clock:    fc,
		TZ:       time.UTC,
		Sunriser: sunrise.NewFixedSunriser(fc, time.UTC, 6*time.Hour, 18*time.Hour),
	}
	tests := []struct {
		name    string
		advance time.Duration
		ok      bool
		frac    float64
	}{
		{name: "before sunrise", advance: 0, ok: false},
		{name: "at sunrise", advance: 3 * time.Hour, ok: true, frac: 0},
		{name: "noon", advance: 6 * time.Hour, ok: true, frac: 0.5},
		{name: "at sunset", advance: 6 * time.Hour, ok: false},
		{name: "next morning", advance: 15 * time.Hour, ok: true, frac: 0.25},
	}
	for _, tc := range tests {
		fc.Advance(tc.advance)
		frac, ok := s.Daylight()
		if ok != tc.ok {
			t.Fatalf("%s: expected ok=%v, got %v", tc.name, tc.ok, ok)
		}
		if ok && math.Abs(frac-tc.frac) > 1e-9 {
			t.Fatalf("%s: expected %.3f, got %.3f", tc.name, tc.frac, frac)
		}
	}
	if s.UpdateDate != "2023-09-02" {
		t.Fatalf("expected schedule to roll over to the next day, got %s", s.UpdateDate)
	}
}

func TestRealSunriser(t *testing.T) {
	fc := clock.NewFakeClockAt(time.Date(2023, time.June, 21, 12, 0, 0, 0, time.UTC))
	rise, set := sunrise.NewRealSunriser(fc, time.UTC, 49.605875, 34.501362).GetSunriseSunset()
	if !set.After(rise) {
		t.Fatalf("expected sunset %v after sunrise %v", set, rise)
	}
	if d := set.Sub(rise); d < 15*time.Hour || d > 17*time.Hour {
		t.Fatalf("expected a long midsummer day, got %v", d)
	}
}
