// Package summary aggregates a controller telemetry log into sample counts
// and energy figures.
package summary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrOpen is returned when the log itself cannot be read.
var ErrOpen = errors.New("could not open log file")

const (
	minColumns  = 6
	powerColumn = 5
)

// Sample is one parsed log line.
type Sample struct {
	Timestamp string
	PowerW    float64
}

// Log is the set of valid samples found in a telemetry log.
type Log struct {
	Samples []Sample
	// Skipped counts data lines that could not be parsed
	Skipped int
}

// Load reads the log at path. The first line is a header; lines with fewer
// than six columns or a non-numeric power column are skipped.
func Load(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	defer f.Close()
	l, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	return l, nil
}

// Read parses a log from r, see Load. Lines have no length limit; an
// oversized line is just another malformed line.
func Read(r io.Reader) (*Log, error) {
	l := &Log{}
	br := bufio.NewReader(r)
	first := true
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line != "" {
			if first {
				first = false
			} else if s, ok := parseLine(strings.TrimSuffix(line, "\n")); ok {
				l.Samples = append(l.Samples, s)
			} else {
				l.Skipped++
			}
		}
		if err == io.EOF {
			return l, nil
		}
	}
}

func parseLine(line string) (Sample, bool) {
	cols := strings.Split(strings.TrimRight(line, "\r"), ",")
	if len(cols) < minColumns {
		return Sample{}, false
	}
	p, ok := parsePower(cols[powerColumn])
	if !ok {
		return Sample{}, false
	}
	return Sample{Timestamp: cols[0], PowerW: p}, true
}

// parsePower reads the leading decimal number of a column, so "5.0W" is
// 5.0. A column that does not start with a number is rejected.
func parsePower(col string) (float64, bool) {
	col = strings.TrimSpace(col)
	if p, err := strconv.ParseFloat(col, 64); err == nil {
		return p, true
	}
	n := numberPrefix(col)
	if n == 0 {
		return 0, false
	}
	p, err := strconv.ParseFloat(col[:n], 64)
	if err != nil {
		return 0, false
	}
	return p, true
}

// numberPrefix returns the length of the longest prefix of s that is a
// decimal float, or 0 when s has no leading digits.
func numberPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && isDigit(s[i]); i++ {
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for ; k < len(s) && isDigit(s[k]); k++ {
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *Log) Count() int { return len(l.Samples) }

// TotalEnergyWh integrates the power samples assuming one sample every
// minutesStep minutes.
func (l *Log) TotalEnergyWh(minutesStep float64) float64 {
	powers := make([]float64, len(l.Samples))
	for i, s := range l.Samples {
		powers[i] = s.PowerW
	}
	return EnergyWh(powers, minutesStep)
}

// EnergyWh is the sum of the power samples times the sample duration in
// hours.
func EnergyWh(powerW []float64, minutesStep float64) float64 {
	var sum float64
	for _, p := range powerW {
		sum += p
	}
	return sum * (minutesStep / 60.0)
}

// Comparison is the energy of the controlled light against an always-on
// baseline.
type Comparison struct {
	BaselineWh  float64
	PrototypeWh float64
}

func Compare(baselineWh, prototypeWh float64) Comparison {
	return Comparison{BaselineWh: baselineWh, PrototypeWh: prototypeWh}
}

func (c Comparison) SavingsWh() float64 {
	return c.BaselineWh - c.PrototypeWh
}

// SavingsPct is 0 when there is no baseline to compare against.
func (c Comparison) SavingsPct() float64 {
	if c.BaselineWh <= 0 {
		return 0
	}
	return 100.0 * (c.BaselineWh - c.PrototypeWh) / c.BaselineWh
}

// NightBaselineWh is the energy of a lamp left at full power for the given
// night hours every day.
func NightBaselineWh(fullWatts, nightHours float64, days int) float64 {
	return fullWatts * nightHours * float64(days)
}
