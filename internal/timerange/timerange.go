// Package timerange parses the compact duration strings used throughout the
// dashboard ("45m", "3h", "1M") and resolves the downsampling interval the
// router should use for a given range.
package timerange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is returned for inputs that do not match the
// duration grammar.
var ErrInvalidDuration = errors.New("invalid duration string")

// Unit is a calendar unit of a parsed duration.
type Unit int

const (
	UnitMinute Unit = iota
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

var unitNames = map[Unit]string{
	UnitMinute: "minute",
	UnitHour:   "hour",
	UnitDay:    "day",
	UnitWeek:   "week",
	UnitMonth:  "month",
	UnitYear:   "year",
}

// String returns the unit name.
func (u Unit) String() string {
	return unitNames[u]
}

// suffix returns the wire letter for the unit. "m" and "M" are the only
// case-significant pair.
func (u Unit) suffix() string {
	switch u {
	case UnitMinute:
		return "m"
	case UnitHour:
		return "h"
	case UnitDay:
		return "d"
	case UnitWeek:
		return "w"
	case UnitMonth:
		return "M"
	case UnitYear:
		return "y"
	}
	return ""
}

// Spec is a normalized duration: a non-negative quantity of one unit.
// A zero quantity is syntactically valid and means an empty range; callers
// decide how to treat it.
type Spec struct {
	Quantity int
	Unit     Unit
}

// String renders the spec back in its wire form, e.g. "3h".
func (s Spec) String() string {
	return strconv.Itoa(s.Quantity) + s.Unit.suffix()
}

// Approx returns an approximate time.Duration for the spec. Months count as
// 30 days and years as 365; this is only used for local cutoffs such as
// archive queries, never for the query parameter sent to the router.
func (s Spec) Approx() time.Duration {
	q := time.Duration(s.Quantity)
	switch s.Unit {
	case UnitMinute:
		return q * time.Minute
	case UnitHour:
		return q * time.Hour
	case UnitDay:
		return q * 24 * time.Hour
	case UnitWeek:
		return q * 7 * 24 * time.Hour
	case UnitMonth:
		return q * 30 * 24 * time.Hour
	case UnitYear:
		return q * 365 * 24 * time.Hour
	}
	return 0
}

var durationPattern = regexp.MustCompile(`^(\d+)([mhdwMyHDWY])$`)

// Parse parses a compact duration string into a Spec. The input is trimmed
// first; an empty or non-matching string returns ErrInvalidDuration. Unit
// letters are case-insensitive except that a lowercase "m" means minutes and
// an uppercase "M" means months.
func Parse(input string) (Spec, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Spec{}, fmt.Errorf("%w: empty input", ErrInvalidDuration)
	}

	m := durationPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidDuration, trimmed)
	}

	quantity, err := strconv.Atoi(m[1])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidDuration, trimmed)
	}

	var unit Unit
	switch m[2] {
	case "m":
		unit = UnitMinute
	case "M":
		unit = UnitMonth
	case "h", "H":
		unit = UnitHour
	case "d", "D":
		unit = UnitDay
	case "w", "W":
		unit = UnitWeek
	case "y", "Y":
		unit = UnitYear
	default:
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidDuration, trimmed)
	}

	return Spec{Quantity: quantity, Unit: unit}, nil
}

// Interval is the server-side downsampling granularity for historical
// queries.
type Interval string

const (
	IntervalRaw        Interval = "raw"
	IntervalMinute     Interval = "1m"
	IntervalFiveMinute Interval = "5m"
	IntervalHour       Interval = "1h"
)

// SelectInterval picks the downsampling interval for a range so the payload
// size stays bounded. Exactly 3h resolves to the coarser 5m bucket.
func SelectInterval(spec Spec) Interval {
	switch spec.Unit {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return IntervalHour
	case UnitHour:
		if spec.Quantity >= 3 {
			return IntervalFiveMinute
		}
		return IntervalMinute
	default:
		return IntervalRaw
	}
}
