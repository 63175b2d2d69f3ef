package metrics

import (
	"math"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "0m"},
		{59, "0m"},
		{60, "1m"},
		{3599, "59m"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{7325, "2h 2m"},
		{144000, "40h 0m"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestHourlyRate(t *testing.T) {
	if got := HourlyRate(2500, 500, 0); got != 0 {
		t.Fatalf("zero time should yield zero rate, got %v", got)
	}
	if got := HourlyRate(2500, 500, 144000); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected 50, got %v", got)
	}
	// Negative net revenue is a valid negative rate, not an error.
	if got := HourlyRate(100, 200, 3600); math.Abs(got-(-100)) > 1e-9 {
		t.Fatalf("expected -100, got %v", got)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{2500, "$2,500.00"},
		{1234567.891, "$1,234,567.89"},
		{-42.5, "-$42.50"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.amount); got != tc.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}
