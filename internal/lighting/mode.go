package lighting

import "fmt"

type Mode int

const (
	ModeOff Mode = iota
	ModeDim
	ModeActive
)

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "OFF"
	case ModeDim:
		return "DIM"
	case ModeActive:
		return "ON_ACTIVE"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the names produced by String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "OFF":
		return ModeOff, nil
	case "DIM":
		return ModeDim, nil
	case "ON_ACTIVE", "ACTIVE":
		return ModeActive, nil
	}
	return ModeOff, fmt.Errorf("unknown mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
