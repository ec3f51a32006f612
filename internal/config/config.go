package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Thresholds are the static tuning constants of the controller.
type Thresholds struct {
	// light level below which a day turns into night
	NightOn int `yaml:"night_on"`
	// light level above which a night turns into day
	DayOn int `yaml:"day_on"`

	DimLevel  int `yaml:"dim_level"`
	FullLevel int `yaml:"full_level"`

	// keep the light ACTIVE this long after the last motion
	Hold time.Duration `yaml:"hold"`
	// drop to DIM after this long without motion
	Idle time.Duration `yaml:"idle"`

	Ramp         time.Duration `yaml:"ramp"`
	StepInterval time.Duration `yaml:"step_interval"`
}

type Sensor struct {
	RawMin   int `yaml:"raw_min"`
	RawMax   int `yaml:"raw_max"`
	LevelMax int `yaml:"level_max"`
}

type Power struct {
	FullWatts float64 `yaml:"full_watts"`
}

// Board holds the SNMP OIDs of the light sensor, the PIR input and the
// output level setpoint.
type Board struct {
	LightOid  string `yaml:"light_oid"`
	MotionOid string `yaml:"motion_oid"`
	LevelOid  string `yaml:"level_oid"`
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type InfluxDB struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Telemetry struct {
	Zone     string   `yaml:"zone"`
	CSVPath  string   `yaml:"csv_path"`
	MQTT     MQTT     `yaml:"mqtt"`
	InfluxDB InfluxDB `yaml:"influxdb"`
	Kafka    Kafka    `yaml:"kafka"`
}

type Config struct {
	Thresholds Thresholds `yaml:"thresholds"`
	Sensor     Sensor     `yaml:"sensor"`
	Power      Power      `yaml:"power"`
	Board      Board      `yaml:"board"`
	Telemetry  Telemetry  `yaml:"telemetry"`
}

// Default returns the stock tuning of the hallway prototype.
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			NightOn:      60,
			DayOn:        80,
			DimLevel:     60,
			FullLevel:    220,
			Hold:         90 * time.Second,
			Idle:         120 * time.Second,
			Ramp:         800 * time.Millisecond,
			StepInterval: 20 * time.Millisecond,
		},
		Sensor: Sensor{RawMin: 0, RawMax: 1023, LevelMax: 200},
		Power:  Power{FullWatts: 9.0},
		Board: Board{
			LightOid:  "1.3.6.1.4.1.38783.3.6.0", // VOLTAGE1
			MotionOid: "1.3.6.1.4.1.38783.3.1.0", // DIGITALINPUT1
			LevelOid:  "1.3.6.1.4.1.38783.2.5.1.5.0",
		},
		Telemetry: Telemetry{
			Zone: "hallway",
			MQTT: MQTT{Topic: "lightctl/telemetry"},
		},
	}
}

// Load reads a YAML file on top of Default. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations that would make the hysteresis or the
// hold/idle dead band meaningless.
func (c Config) Validate() error {
	t := c.Thresholds
	if t.NightOn >= t.DayOn {
		return fmt.Errorf("%w: night_on (%d) must be below day_on (%d)", ErrInvalid, t.NightOn, t.DayOn)
	}
	if t.Hold > t.Idle {
		return fmt.Errorf("%w: hold (%v) must not exceed idle (%v)", ErrInvalid, t.Hold, t.Idle)
	}
	for name, v := range map[string]int{"dim_level": t.DimLevel, "full_level": t.FullLevel} {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: %s %d outside [0,255]", ErrInvalid, name, v)
		}
	}
	if t.StepInterval <= 0 {
		return fmt.Errorf("%w: step_interval must be positive", ErrInvalid)
	}
	if c.Sensor.RawMax <= c.Sensor.RawMin {
		return fmt.Errorf("%w: sensor raw_max must exceed raw_min", ErrInvalid)
	}
	if c.Sensor.LevelMax <= 0 {
		return fmt.Errorf("%w: sensor level_max must be positive", ErrInvalid)
	}
	return nil
}
