package session

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// expiryPattern matches the day and week shorthands that time.ParseDuration
// does not understand.
var expiryPattern = regexp.MustCompile(`^(\d+)([dw])$`)

// ParseExpiry parses an expiry duration string. It accepts everything
// time.ParseDuration does plus integer "d" (day) and "w" (week) suffixes,
// so configuration can say "7d" instead of "168h". The result must be
// positive; anything else is ErrConfiguration.
func ParseExpiry(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.Join(ErrConfiguration, errors.New("empty expiry duration"))
	}

	if m := expiryPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, errors.Join(ErrConfiguration, err)
		}
		unit := 24 * time.Hour
		if m[2] == "w" {
			unit = 7 * 24 * time.Hour
		}
		d := time.Duration(n) * unit
		if d <= 0 || time.Duration(n) != d/unit {
			return 0, errors.Join(ErrConfiguration, fmt.Errorf("expiry %q out of range", s))
		}
		return d, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Join(ErrConfiguration, err)
	}
	if d <= 0 {
		return 0, errors.Join(ErrConfiguration, fmt.Errorf("expiry %q must be positive", s))
	}
	return d, nil
}
