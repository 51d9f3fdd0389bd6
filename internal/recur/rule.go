package recur

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Unit is the calendar unit a rule repeats on.
type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

// ErrInvalidRule is wrapped by all rule validation failures.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Weekday indices are Monday=0..Sunday=6 everywhere in this package.
// WeekdayIndex converts from time.Weekday (Sunday=0) at the boundary.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Rule is the computation view of a stored recurrence rule. StartDate's
// location is the reporting timezone; all derived dates stay in it.
type Rule struct {
	Unit          Unit
	Interval      int
	DaysOfWeek    []int
	Hour          int
	Minute        int
	StartDate     time.Time
	EndDate       *time.Time
	LastGenerated *time.Time
	Active        bool
}

// Validate checks the rule invariants. Errors wrap ErrInvalidRule.
func (r Rule) Validate() error {
	switch r.Unit {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidRule, r.Unit)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval %d, must be >= 1", ErrInvalidRule, r.Interval)
	}
	if r.Unit == UnitWeeks {
		if len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly rule needs at least one weekday", ErrInvalidRule)
		}
	} else if len(r.DaysOfWeek) != 0 {
		return fmt.Errorf("%w: daysOfWeek only allowed for weekly rules", ErrInvalidRule)
	}
	for _, wd := range r.DaysOfWeek {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("%w: weekday %d out of range 0..6", ErrInvalidRule, wd)
		}
	}
	if r.Hour < 0 || r.Hour > 23 || r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("%w: time %02d:%02d out of range", ErrInvalidRule, r.Hour, r.Minute)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidRule)
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidRule)
	}
	if r.LastGenerated != nil {
		if r.LastGenerated.Before(r.StartDate) {
			return fmt.Errorf("%w: last generated date before start date", ErrInvalidRule)
		}
		if r.EndDate != nil && r.LastGenerated.After(*r.EndDate) {
			return fmt.Errorf("%w: last generated date after end date", ErrInvalidRule)
		}
	}
	return nil
}

// ParseClock parses a "HH:MM" time-of-day string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: time %q, expected HH:MM", ErrInvalidRule, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidRule, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: invalid minute in %q", ErrInvalidRule, s)
	}
	return hour, minute, nil
}

// ParseWeekdaySet parses a comma-joined weekday list like "0,2,4" into a
// sorted, de-duplicated slice. An empty string yields an empty slice.
func ParseWeekdaySet(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	var days []int
	for _, part := range strings.Split(s, ",") {
		wd, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || wd < 0 || wd > 6 {
			return nil, fmt.Errorf("%w: weekday %q out of range 0..6", ErrInvalidRule, part)
		}
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	sort.Ints(days)
	return days, nil
}

// FormatWeekdaySet is the inverse of ParseWeekdaySet.
func FormatWeekdaySet(days []int) string {
	if len(days) == 0 {
		return ""
	}
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, wd := range sorted {
		parts[i] = strconv.Itoa(wd)
	}
	return strings.Join(parts, ",")
}
