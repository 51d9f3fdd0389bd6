// Package stats derives completion statistics from task history.
// All computations are pure; the completion ledger is a projection the
// caller builds from completed-task timestamps, day-bucketed in a single
// reporting timezone.
package stats

import (
	"sort"
	"time"
)

// DayFormat keys heatmap entries and day sets.
const DayFormat = "2006-01-02"

// Streak summarizes consecutive-day completion runs.
type Streak struct {
	Current      int
	Longest      int
	LastActivity *time.Time
}

// DayKey formats a timestamp as its calendar day in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayFormat)
}

// DistinctDays day-buckets completion timestamps in loc, returning sorted
// unique midnights. Multiple completions on one day collapse to one entry.
func DistinctDays(completions []time.Time, loc *time.Location) []time.Time {
	seen := make(map[string]time.Time, len(completions))
	for _, c := range completions {
		y, m, d := c.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		seen[DayKey(day)] = day
	}
	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// ComputeStreak derives current and longest streaks from distinct
// completion days. The current streak counts consecutive days ending at
// asOf or asOf-1: asOf itself not being completed yet does not break the
// run, a missing prior day does. Empty history yields zeros and a nil
// LastActivity.
func ComputeStreak(days []time.Time, asOf time.Time) Streak {
	if len(days) == 0 {
		return Streak{}
	}

	loc := asOf.Location()
	set := make(map[string]bool, len(days))
	var last time.Time
	for _, d := range days {
		y, m, dd := d.In(loc).Date()
		day := time.Date(y, m, dd, 0, 0, 0, 0, loc)
		set[DayKey(day)] = true
		if day.After(last) {
			last = day
		}
	}

	y, m, d := asOf.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	anchor := today
	if !set[DayKey(anchor)] {
		anchor = anchor.AddDate(0, 0, -1)
	}
	current := 0
	for set[DayKey(anchor)] {
		current++
		anchor = anchor.AddDate(0, 0, -1)
	}

	longest, run := 0, 0
	sorted := DistinctDays(days, loc)
	for i, day := range sorted {
		if i > 0 && day.Sub(sorted[i-1]) <= 36*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return Streak{Current: current, Longest: longest, LastActivity: &last}
}

// Heatmap counts completions per calendar day within [from, to]. Days
// without completions are absent from the map, implicitly zero.
func Heatmap(completions []time.Time, from, to time.Time, loc *time.Location) map[string]int {
	y, m, d := from.In(loc).Date()
	lower := time.Date(y, m, d, 0, 0, 0, 0, loc)
	y, m, d = to.In(loc).Date()
	upper := time.Date(y, m, d, 0, 0, 0, 0, loc)

	out := make(map[string]int)
	for _, c := range completions {
		y, m, d := c.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if day.Before(lower) || day.After(upper) {
			continue
		}
		out[DayKey(day)]++
	}
	return out
}
