// Package metrics holds the pure derivation functions behind the
// dashboard numbers: currency and duration display plus the real
// hourly rate.
package metrics

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as localized US dollar text with two
// decimal places and digit grouping, e.g. 2500 -> "$2,500.00".
func FormatCurrency(amount float64) string {
	if amount < 0 {
		return usd.Sprintf("-$%v", number.Decimal(-amount, number.Scale(2)))
	}
	return usd.Sprintf("$%v", number.Decimal(amount, number.Scale(2)))
}

// FormatDuration renders whole seconds as "{H}h {M}m" when at least one
// hour has accumulated, otherwise "{M}m". Seconds are never rendered.
// Callers guarantee seconds >= 0.
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// HourlyRate is net revenue divided by invested hours. Zero invested
// time yields zero rather than a division by zero; negative net revenue
// yields a negative rate, which is a valid signal.
func HourlyRate(revenue, expenses float64, timeSeconds int64) float64 {
	if timeSeconds <= 0 {
		return 0
	}
	hours := float64(timeSeconds) / 3600
	return (revenue - expenses) / hours
}
