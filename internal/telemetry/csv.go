package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lwolf/lightctl/internal/lighting"
)

// Header is the first line of every telemetry log. The summarizer relies on
// power_w being the sixth column.
var Header = []string{"ts", "lux", "motion", "mode", "pwm", "power_w"}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// PowerModel estimates the electrical power drawn at an output level.
type PowerModel struct {
	FullWatts float64
}

func (p PowerModel) Watts(level int) float64 {
	if level <= 0 {
		return 0
	}
	return p.FullWatts * float64(level) / 255.0
}

// Row renders a record as a CSV row matching Header.
func Row(rec lighting.Record, power PowerModel) []string {
	motion := "0"
	if rec.Motion {
		motion = "1"
	}
	return []string{
		rec.At.Format(timeFormat),
		strconv.Itoa(rec.Light),
		motion,
		rec.Mode.String(),
		strconv.Itoa(rec.Level),
		fmt.Sprintf("%.3f", power.Watts(rec.Level)),
	}
}

// CSVWriter appends one row per record. Every row is flushed so a crash
// loses at most the cycle in progress.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
	power  PowerModel
}

func NewCSVWriter(w io.Writer, power PowerModel) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w), power: power}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	if err := cw.write(Header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	return cw, nil
}

// CreateCSV creates (or truncates) the log at path, including its parent
// directories.
func CreateCSV(path string, power PowerModel) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create csv log: %w", err)
	}
	cw, err := NewCSVWriter(f, power)
	if err != nil {
		f.Close()
		return nil, err
	}
	return cw, nil
}

func (c *CSVWriter) write(row []string) error {
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Emit(rec lighting.Record) error {
	return c.write(Row(rec, c.power))
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	if c.closer != nil {
		return c.closer.Close()
	}
	return c.w.Error()
}

// Payload is the JSON shape of a record on message buses.
type Payload struct {
	Timestamp time.Time     `json:"ts"`
	Zone      string        `json:"zone"`
	Light     int           `json:"lux"`
	Motion    bool          `json:"motion"`
	Mode      lighting.Mode `json:"mode"`
	Level     int           `json:"pwm"`
	PowerW    float64       `json:"power_w"`
}

func NewPayload(rec lighting.Record, zone string, power PowerModel) Payload {
	return Payload{
		Timestamp: rec.At,
		Zone:      zone,
		Light:     rec.Light,
		Motion:    rec.Motion,
		Mode:      rec.Mode,
		Level:     rec.Level,
		PowerW:    power.Watts(rec.Level),
	}
}
