package recur

import (
	"math"
	"time"
)

// Occurrences computes the due timestamps of r that fall on days within
// [from, to], in ascending order. The lower bound is further raised past
// r.LastGenerated (exclusive, already materialized) and r.StartDate; the
// upper bound is capped at r.EndDate (inclusive). Inactive rules yield
// nothing. The window is always finite, so the result is too.
//
// The rule is assumed valid; enforce Rule.Validate at creation time.
func Occurrences(r Rule, from, to time.Time) []time.Time {
	if !r.Active {
		return nil
	}

	loc := r.StartDate.Location()
	start := dateOf(r.StartDate, loc)

	lower := dateOf(from, loc)
	if lower.Before(start) {
		lower = start
	}
	if r.LastGenerated != nil {
		next := dateOf(*r.LastGenerated, loc).AddDate(0, 0, 1)
		if lower.Before(next) {
			lower = next
		}
	}

	upper := dateOf(to, loc)
	if r.EndDate != nil {
		if end := dateOf(*r.EndDate, loc); end.Before(upper) {
			upper = end
		}
	}
	if upper.Before(lower) {
		return nil
	}

	var days []time.Time
	switch r.Unit {
	case UnitDays:
		days = dailyDates(r, start, lower, upper)
	case UnitWeeks:
		days = weeklyDates(r, start, lower, upper)
	case UnitMonths:
		days = monthlyDates(r, start, lower, upper)
	case UnitYears:
		days = yearlyDates(r, start, lower, upper)
	}

	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		out = append(out, time.Date(d.Year(), d.Month(), d.Day(), r.Hour, r.Minute, 0, 0, loc))
	}
	return out
}

func dailyDates(r Rule, start, lower, upper time.Time) []time.Time {
	k := daysBetween(start, lower)
	if rem := k % r.Interval; rem != 0 {
		k += r.Interval - rem
	}
	var out []time.Time
	for d := start.AddDate(0, 0, k); !d.After(upper); d = d.AddDate(0, 0, r.Interval) {
		out = append(out, d)
	}
	return out
}

// weeklyDates walks Monday-anchored weeks; only weeks whose index relative
// to the start week is a multiple of the interval contribute occurrences.
func weeklyDates(r Rule, start, lower, upper time.Time) []time.Time {
	startWeek := startOfWeek(start)
	var out []time.Time
	for week := startOfWeek(lower); !week.After(upper); week = week.AddDate(0, 0, 7) {
		if (daysBetween(startWeek, week)/7)%r.Interval != 0 {
			continue
		}
		for _, wd := range r.DaysOfWeek {
			d := week.AddDate(0, 0, wd)
			if d.Before(lower) || d.After(upper) {
				continue
			}
			out = append(out, d)
		}
	}
	return out
}

func monthlyDates(r Rule, start, lower, upper time.Time) []time.Time {
	months := monthsBetween(start, lower)
	k := months / r.Interval
	if k > 0 {
		k--
	}
	var out []time.Time
	for ; ; k++ {
		d := addMonthsClamped(start, k*r.Interval)
		if d.After(upper) {
			return out
		}
		if !d.Before(lower) {
			out = append(out, d)
		}
	}
}

func yearlyDates(r Rule, start, lower, upper time.Time) []time.Time {
	k := (lower.Year() - start.Year()) / r.Interval
	if k > 0 {
		k--
	}
	var out []time.Time
	for ; ; k++ {
		d := addMonthsClamped(start, 12*k*r.Interval)
		if d.After(upper) {
			return out
		}
		if !d.Before(lower) {
			out = append(out, d)
		}
	}
}

// addMonthsClamped advances the anchor by n months, clamping the anchor's
// day-of-month to the target month's length (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(anchor time.Time, n int) time.Time {
	y := anchor.Year() + n/12
	m := int(anchor.Month()) + n%12
	if m > 12 {
		m -= 12
		y++
	}
	day := anchor.Day()
	if last := daysInMonth(time.Month(m), y); day > last {
		day = last
	}
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, anchor.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)
	lastOfMonth := firstOfNextMonth.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}

func monthsBetween(a, b time.Time) int {
	n := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if n < 0 {
		return 0
	}
	return n
}

// daysBetween counts calendar days between two midnights in the same
// location. Rounding absorbs DST-shortened and -lengthened days.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func startOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -WeekdayIndex(t))
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
