package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LopatkinEvgeniy/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lwolf/lightctl/internal/config"
	"github.com/lwolf/lightctl/internal/lighting"
	"github.com/lwolf/lightctl/internal/sensor"
	"github.com/lwolf/lightctl/internal/sim"
	"github.com/lwolf/lightctl/internal/summary"
	"github.com/lwolf/lightctl/internal/sunrise"
	"github.com/lwolf/lightctl/internal/telemetry"
)

const startLayout = "2006-01-02T15:04"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	configPath := flag.String("config", "", "Path to the YAML config with thresholds")
	days := flag.Int("days", 7, "Number of simulated days")
	seed := flag.Int64("seed", 42, "Seed of the motion model")
	outDir := flag.String("out", "data", "Directory for the generated CSV files")
	startAt := flag.String("start", "2023-09-01T18:00", "Local start time of the simulation")
	timeZone := flag.String("tz", "UTC", "Time zone to use")
	lat := flag.Float64("lat", 0, "Latitude for sunset/sunrise estimation, fixed 06:00/18:00 when both lat and lon are 0")
	lon := flag.Float64("lon", 0, "Longitude for sunset/sunrise estimation")
	nightHours := flag.Float64("night-hours", 12, "Hours per day the always-on baseline burns")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	loc, err := time.LoadLocation(*timeZone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", *timeZone).Msg("failed to parse time zone")
	}
	start, err := time.ParseInLocation(startLayout, *startAt, loc)
	if err != nil {
		log.Fatal().Err(err).Str("start", *startAt).Msg("failed to parse start time")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	fc := clock.NewFakeClockAt(start)
	var sr sunrise.Sunriser = sunrise.NewFixedSunriser(fc, loc, 6*time.Hour, 18*time.Hour)
	if *lat != 0 || *lon != 0 {
		sr = sunrise.NewRealSunriser(fc, loc, *lat, *lon)
	}
	room := sim.NewRoom(fc, loc, sr, sensor.NewScale(cfg.Sensor), *seed)
	lamp := &sim.Lamp{}
	ctrl := lighting.NewController(cfg, room, room, lamp, fc)

	power := telemetry.PowerModel{FullWatts: cfg.Power.FullWatts}
	logPath := filepath.Join(*outDir, "prototype_log.csv")
	csvLog, err := telemetry.CreateCSV(logPath, power)
	if err != nil {
		log.Fatal().Err(err).Str("path", logPath).Msg("failed to create log")
	}

	log.Info().Time("start", start).Int("days", *days).Int64("seed", *seed).Msg("simulating")
	res := sim.Run(ctrl, fc, sim.Options{
		Days:       *days,
		Step:       time.Minute,
		NightHours: *nightHours,
		Power:      power,
	}, csvLog)
	if err := csvLog.Close(); err != nil {
		log.Fatal().Err(err).Str("path", logPath).Msg("failed to close log")
	}
	log.Info().
		Int("samples", res.Samples).
		Int("off", res.Modes[lighting.ModeOff]).
		Int("dim", res.Modes[lighting.ModeDim]).
		Int("active", res.Modes[lighting.ModeActive]).
		Int("writes", lamp.Writes()).
		Msg("simulation done")

	summaryPath := filepath.Join(*outDir, "energy_summary.csv")
	if err := writeSummary(summaryPath, res.Energy); err != nil {
		log.Fatal().Err(err).Str("path", summaryPath).Msg("failed to write summary")
	}

	fmt.Printf("Baseline Wh : %.2f\n", res.Energy.BaselineWh)
	fmt.Printf("Prototype Wh: %.2f\n", res.Energy.PrototypeWh)
	fmt.Printf("Savings %%   : %.2f\n", res.Energy.SavingsPct())
	fmt.Println("Wrote:", logPath)
	fmt.Println("Wrote:", summaryPath)
}

func writeSummary(path string, c summary.Comparison) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Write([]string{"period", "baseline_wh", "prototype_wh", "savings_pct"})
	w.Write([]string{
		"overall",
		fmt.Sprintf("%.2f", c.BaselineWh),
		fmt.Sprintf("%.2f", c.PrototypeWh),
		fmt.Sprintf("%.2f", c.SavingsPct()),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
