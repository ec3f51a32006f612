package sunrise

import (
	"time"

	"github.com/LopatkinEvgeniy/clock"
	gs "github.com/nathan-osman/go-sunrise"
	"github.com/rs/zerolog/log"
)

// reconstructDate takes source date and sunset or sunrise time as target and returns
// new date using year,month,day and location from the source and time from the target.
func reconstructDate(sourceDate time.Time, targetTime time.Time) time.Time {
	return time.Date(
		sourceDate.Year(),
		sourceDate.Month(),
		sourceDate.Day(),
		targetTime.Hour(),
		targetTime.Minute(),
		targetTime.Second(),
		targetTime.Nanosecond(),
		sourceDate.Location(),
	)
}

// Sunriser returns today's sunrise and sunset.
type Sunriser interface {
	GetSunriseSunset() (time.Time, time.Time)
}

type realSunriser struct {
	cl  clock.Clock
	tz  *time.Location
	lat float64
	lon float64
}

func (rs *realSunriser) GetSunriseSunset() (time.Time, time.Time) {
	localTime := rs.cl.Now().In(rs.tz)
	rise, set := gs.SunriseSunset(
		rs.lat, rs.lon,
		localTime.Year(), localTime.Month(), localTime.Day(),
	)
	return rise.In(rs.tz), set.In(rs.tz)
}

func NewRealSunriser(cl clock.Clock, tz *time.Location, lat float64, lon float64) *realSunriser {
	return &realSunriser{
		cl:  cl,
		tz:  tz,
		lat: lat,
		lon: lon,
	}
}

// fixedSunriser rises and sets at the same wall clock time every day.
type fixedSunriser struct {
	cl      clock.Clock
	tz      *time.Location
	sunrise time.Time
	sunset  time.Time
}

func NewFixedSunriser(cl clock.Clock, tz *time.Location, sunrise, sunset time.Duration) *fixedSunriser {
	base := time.Date(2000, time.January, 1, 0, 0, 0, 0, tz)
	return &fixedSunriser{cl: cl, tz: tz, sunrise: base.Add(sunrise), sunset: base.Add(sunset)}
}

func (fs *fixedSunriser) GetSunriseSunset() (time.Time, time.Time) {
	today := fs.cl.Now().In(fs.tz)
	return reconstructDate(today, fs.sunrise), reconstructDate(today, fs.sunset)
}

// Schedule caches sunrise and sunset per calendar day.
type Schedule struct {
	Clock    clock.Clock
	TZ       *time.Location
	Sunriser Sunriser

	SunriseTime time.Time
	SunsetTime  time.Time
	// SunriseTime and SunsetTime are date specific, therefore need to
	// be updated. `UpdateDate` used as a cache mark
	// indicating the date of values. if today != UpdateDate
	// values need to be updated
	UpdateDate string
}

func (s *Schedule) Update() {
	today := s.Clock.Now().In(s.TZ).Format("2006-01-02")
	if s.UpdateDate != today || s.SunsetTime.IsZero() || s.SunriseTime.IsZero() {
		srise, sset := s.Sunriser.GetSunriseSunset()
		s.SunriseTime = srise
		s.SunsetTime = sset
		s.UpdateDate = today
		log.Debug().
			Time("sunrise", srise).
			Time("sunset", sset).
			Str("updateDate", today).
			Msg("Schedule updated")
	}
}

// Daylight returns how far into the day now is, 0 at sunrise and 1 at
// sunset. ok is false outside of that window, including polar days where
// the library returns zero times.
func (s *Schedule) Daylight() (frac float64, ok bool) {
	s.Update()
	now := s.Clock.Now().In(s.TZ)
	if s.SunriseTime.IsZero() || s.SunsetTime.IsZero() || !s.SunsetTime.After(s.SunriseTime) {
		return 0, false
	}
	if now.Before(s.SunriseTime) || !now.Before(s.SunsetTime) {
		return 0, false
	}
	return float64(now.Sub(s.SunriseTime)) / float64(s.SunsetTime.Sub(s.SunriseTime)), true
}
