// Package recurrence implements billing-period date arithmetic. All functions
// are pure; dates are UTC midnight time.Time values.
package recurrence

import (
	"errors"
	"strings"
	"time"
)

// Unit is the cadence governing how a billing period advances.
type Unit string

const (
	Monthly Unit = "monthly"
	Yearly  Unit = "yearly"
)

var ErrUnknownRecurrence = errors.New("unknown_recurrence")

// ParseUnit normalizes a stored recurrence value.
func ParseUnit(raw string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(raw))) {
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", ErrUnknownRecurrence
	}
}

// NextStartBilledDate returns the first day of the next billing period:
// the start date for a never-billed subscription, otherwise the day after
// the last billed day.
func NextStartBilledDate(startDate time.Time, endBilledDate *time.Time) time.Time {
	if endBilledDate == nil {
		return midnight(startDate)
	}
	return midnight(*endBilledDate).AddDate(0, 0, 1)
}

// NextEndBilledDate returns the last day of the next billing period. A nil
// endBilledDate is treated as startDate-1d for this computation only.
//
// Monthly periods are end+1d+1m-1d with calendar-clamped month addition, so
// month-end anchors stay month-end aligned (2023-09-30 -> 2023-10-31, not
// 2023-10-30). Yearly periods are end+1y, clamped for Feb 29 anchors.
func NextEndBilledDate(startDate time.Time, endBilledDate *time.Time, unit Unit) (time.Time, error) {
	base := midnight(startDate).AddDate(0, 0, -1)
	if endBilledDate != nil {
		base = midnight(*endBilledDate)
	}

	switch unit {
	case Monthly:
		return addMonths(base.AddDate(0, 0, 1), 1).AddDate(0, 0, -1), nil
	case Yearly:
		return addYears(base, 1), nil
	default:
		return time.Time{}, ErrUnknownRecurrence
	}
}

// addMonths adds months clamping the day to the target month's length,
// unlike time.AddDate which normalizes overflow into the following month.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func addYears(t time.Time, years int) time.Time {
	return addMonths(t, years*12)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts whole calendar days from `from` until `until`, negative
// when `until` is in the past.
func DaysUntil(from, until time.Time) int {
	return int(midnight(until).Sub(midnight(from)) / (24 * time.Hour))
}
