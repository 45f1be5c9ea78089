package services

import (
	"time"

	apperrors "tally/internal/errors"
	"tally/internal/models"
)

// dateOnly truncates a time to UTC midnight. Occurrence dates and the
// idempotency key are date-valued; normalizing here keeps equality checks
// and the unique index well-defined across callers in different zones.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the month containing year/month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDate builds a date in year/month with the day clamped to the
// month's length: a day-31 anchor lands on Feb 28 (29 in leap years), and
// a Feb 29 anchor falls back to Feb 28 in non-leap years.
func clampedDate(year int, month time.Month, day int) time.Time {
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// occurrencesBetween computes every date in [from, to] on which a pattern
// anchored at start with the given frequency is due. The anchor's
// day-of-month (and month, for yearly) defines the stride target; shorter
// months clamp rather than spilling into the next month.
func occurrencesBetween(frequency models.Frequency, start, from, to time.Time) ([]time.Time, error) {
	start = dateOnly(start)
	from = dateOnly(from)
	to = dateOnly(to)

	if to.Before(from) || to.Before(start) {
		return nil, nil
	}

	var dates []time.Time
	switch frequency {
	case models.FrequencyDaily:
		for d := start; !d.After(to); d = d.AddDate(0, 0, 1) {
			if !d.Before(from) {
				dates = append(dates, d)
			}
		}

	case models.FrequencyWeekly:
		for d := start; !d.After(to); d = d.AddDate(0, 0, 7) {
			if !d.Before(from) {
				dates = append(dates, d)
			}
		}

	case models.FrequencyMonthly:
		// AddDate normalizes overflow (Jan 31 + 1 month = Mar 2/3), so
		// walk months via the first of the month and rebuild each date
		// from the anchor's day-of-month.
		for i := 0; ; i++ {
			first := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
			d := clampedDate(first.Year(), first.Month(), start.Day())
			if d.After(to) {
				break
			}
			if !d.Before(from) {
				dates = append(dates, d)
			}
		}

	case models.FrequencyYearly:
		for year := start.Year(); ; year++ {
			d := clampedDate(year, start.Month(), start.Day())
			if d.After(to) {
				break
			}
			if !d.Before(from) {
				dates = append(dates, d)
			}
		}

	default:
		return nil, apperrors.ErrInvalidFrequency
	}

	return dates, nil
}
