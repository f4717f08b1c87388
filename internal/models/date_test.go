package models

import (
	"testing"
	"time"
)

func TestParseReleaseDate(t *testing.T) {
	t.Run("Year Precision Uses Mid-Year Day", func(t *testing.T) {
		got, err := ParseReleaseDate("2020", PrecisionYear)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.YearDay() != 183 {
			t.Errorf("expected day-of-year 183, got %d", got.YearDay())
		}
		if got.Year() != 2020 {
			t.Errorf("expected year 2020, got %d", got.Year())
		}
	})

	t.Run("Month Precision Uses Mid-Month Day", func(t *testing.T) {
		got, err := ParseReleaseDate("2020-03", PrecisionMonth)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Day Precision Parses Exact Date", func(t *testing.T) {
		got, err := ParseReleaseDate("2020-01-02", PrecisionDay)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Malformed Values", func(t *testing.T) {
		cases := []struct {
			value     string
			precision DatePrecision
		}{
			{"twenty-twenty", PrecisionYear},
			{"2020", PrecisionMonth},
			{"2020-13", PrecisionMonth},
			{"2020-01", PrecisionDay},
			{"2020-01-40", PrecisionDay},
		}

		for _, tc := range cases {
			if _, err := ParseReleaseDate(tc.value, tc.precision); err == nil {
				t.Errorf("expected error for %q at %s precision", tc.value, tc.precision)
			}
		}
	})
}

func TestInferReleaseDate(t *testing.T) {
	t.Run("Infers Precision From Shape", func(t *testing.T) {
		year, err := InferReleaseDate("1999")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if year.YearDay() != 183 {
			t.Errorf("expected mid-year fill, got day %d", year.YearDay())
		}

		month, err := InferReleaseDate("1999-06")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if month.Day() != 15 {
			t.Errorf("expected mid-month fill, got day %d", month.Day())
		}

		day, err := InferReleaseDate("1999-06-21")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if day.Day() != 21 {
			t.Errorf("expected day 21, got %d", day.Day())
		}
	})

	t.Run("Rejects Unexpected Shapes", func(t *testing.T) {
		for _, v := range []string{"1999-06-21-05", "not-a-date", ""} {
			if _, err := InferReleaseDate(v); err == nil {
				t.Errorf("expected error for %q", v)
			}
		}
	})
}

func TestNormalizeISRC(t *testing.T) {
	if got := NormalizeISRC(" usabc1234567 "); got != "USABC1234567" {
		t.Errorf("expected USABC1234567, got %s", got)
	}
}
