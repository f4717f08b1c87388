package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DatePrecision enumerates how much of a release date a catalog reported.
type DatePrecision int

const (
	PrecisionDay DatePrecision = iota
	PrecisionMonth
	PrecisionYear
)

func (p DatePrecision) String() string {
	switch p {
	case PrecisionDay:
		return "day"
	case PrecisionMonth:
		return "month"
	case PrecisionYear:
		return "year"
	default:
		return "unknown"
	}
}

// Midpoint fill values for coarse release dates. A year-only date lands on
// day-of-year 183 and a month-only date on the 15th, keeping the expected
// day error symmetric instead of biasing every coarse date toward day 1.
const (
	midYearDay  = 183
	midMonthDay = 15
)

// PrecisionFromString maps a catalog precision label ("day", "month",
// "year") to a [DatePrecision].
func PrecisionFromString(s string) (DatePrecision, error) {
	switch s {
	case "day":
		return PrecisionDay, nil
	case "month":
		return PrecisionMonth, nil
	case "year":
		return PrecisionYear, nil
	default:
		return 0, fmt.Errorf("unknown date precision %q", s)
	}
}

// ParseReleaseDate parses a release date string at the stated precision,
// filling unknown components with the documented midpoints.
//
// Accepted shapes per precision: "2006" (year), "2006-01" (month),
// "2006-01-02" (day).
func ParseReleaseDate(s string, precision DatePrecision) (time.Time, error) {
	parts := strings.Split(s, "-")

	switch precision {
	case PrecisionYear:
		if len(parts) < 1 {
			return time.Time{}, fmt.Errorf("malformed release date %q", s)
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed release year %q: %w", s, err)
		}
		// time.Date normalizes the out-of-range day into day-of-year 183
		return time.Date(year, time.January, midYearDay, 0, 0, 0, 0, time.UTC), nil

	case PrecisionMonth:
		if len(parts) < 2 {
			return time.Time{}, fmt.Errorf("malformed release month %q", s)
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed release year %q: %w", s, err)
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil || month < 1 || month > 12 {
			return time.Time{}, fmt.Errorf("malformed release month %q", s)
		}
		return time.Date(year, time.Month(month), midMonthDay, 0, 0, 0, 0, time.UTC), nil

	case PrecisionDay:
		if len(parts) < 3 {
			return time.Time{}, fmt.Errorf("malformed release date %q", s)
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed release date %q: %w", s, err)
		}
		return t.UTC(), nil

	default:
		return time.Time{}, fmt.Errorf("unknown date precision %d", precision)
	}
}

// InferReleaseDate parses a release date whose precision is conveyed only by
// its shape: "2006", "2006-01", or "2006-01-02". Any other shape is an
// error; the Apple Music catalog contract promises one of these three, so a
// mismatch signals schema drift rather than a skippable record.
func InferReleaseDate(s string) (time.Time, error) {
	switch strings.Count(s, "-") {
	case 0:
		return ParseReleaseDate(s, PrecisionYear)
	case 1:
		return ParseReleaseDate(s, PrecisionMonth)
	case 2:
		return ParseReleaseDate(s, PrecisionDay)
	default:
		return time.Time{}, fmt.Errorf("malformed release date %q", s)
	}
}
