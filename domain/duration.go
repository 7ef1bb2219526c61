package domain

import (
	"strconv"
	"time"

	"golang.org/x/xerrors"
)

// ParseDuration parses the protocol's compact duration strings: "30d", "12h"
// or a bare number of seconds ("45").
func ParseDuration(s string) (time.Duration, error) {
	if len(s) == 0 {
		return 0, ErrInvalidDurationFormat
	}

	unit := time.Second
	num := s
	switch s[len(s)-1] {
	case 'd':
		unit = 24 * time.Hour
		num = s[:len(s)-1]
	case 'h':
		unit = time.Hour
		num = s[:len(s)-1]
	}

	v, err := strconv.Atoi(num)
	if err != nil || v <= 0 {
		return 0, xerrors.Errorf("parse duration %q: %w", s, ErrInvalidDurationFormat)
	}
	return time.Duration(v) * unit, nil
}

// DurationDays returns the whole number of days a duration string covers,
// defaulting to 30 when unparseable. Used for annualizing rates.
func DurationDays(s string) int {
	d, err := ParseDuration(s)
	if err != nil {
		return 30
	}
	days := int(d / (24 * time.Hour))
	if days <= 0 {
		return 1
	}
	return days
}
