package service

import (
	"time"

	"taskmill/internal/model"
	"taskmill/internal/recur"
)

// ruleSpec converts a stored rule into its computation view, anchoring all
// dates in the reporting timezone.
func ruleSpec(rule model.RecurrenceRule, loc *time.Location) (recur.Rule, error) {
	days, err := recur.ParseWeekdaySet(rule.DaysOfWeek)
	if err != nil {
		return recur.Rule{}, err
	}
	hour, minute, err := recur.ParseClock(rule.TimeOfDay)
	if err != nil {
		return recur.Rule{}, err
	}

	spec := recur.Rule{
		Unit:       recur.Unit(rule.Unit),
		Interval:   rule.Interval,
		DaysOfWeek: days,
		Hour:       hour,
		Minute:     minute,
		StartDate:  dateIn(rule.StartDate, loc),
		Active:     rule.IsActive,
	}
	if rule.EndDate != nil {
		end := dateIn(*rule.EndDate, loc)
		spec.EndDate = &end
	}
	if rule.LastGeneratedDate != nil {
		last := dateIn(*rule.LastGeneratedDate, loc)
		spec.LastGenerated = &last
	}
	return spec, nil
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
