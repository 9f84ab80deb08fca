package rate

import (
	"fmt"
	"strings"
)

// Mode selects which price a lookup reports.
type Mode string

const (
	ModeRealtime Mode = "realtime"
	ModeVWAP     Mode = "vwap"
	ModeBestRate Mode = "bestrate"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRealtime, ModeVWAP, ModeBestRate:
		return m, nil
	default:
		return "", fmt.Errorf("unknown exchange rate mode %q", s)
	}
}

func (m Mode) String() string {
	return string(m)
}

// UnmarshalFlag lets go-flags parse a Mode.
func (m *Mode) UnmarshalFlag(value string) error {
	parsed, err := ParseMode(value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
