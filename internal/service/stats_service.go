package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"taskmill/internal/model"
	"taskmill/internal/repository"
	"taskmill/internal/stats"
)

// StatsService answers streak, heatmap, and daily summary queries. All
// methods are read-only and safe for concurrent callers; everything is
// re-derived from the completion ledger on each call.
type StatsService struct {
	taskRepo *repository.TaskRepository
	loc      *time.Location
}

func NewStatsService(taskRepo *repository.TaskRepository, loc *time.Location) *StatsService {
	return &StatsService{taskRepo: taskRepo, loc: loc}
}

// Streak computes current and longest completion streaks as of the given
// moment, day-bucketed in the reporting timezone.
func (s *StatsService) Streak(ctx context.Context, asOf time.Time) (stats.Streak, error) {
	completions, err := s.taskRepo.CompletionTimes(ctx)
	if err != nil {
		return stats.Streak{}, err
	}
	days := stats.DistinctDays(completions, s.loc)
	return stats.ComputeStreak(days, asOf.In(s.loc)), nil
}

// Heatmap returns per-day completion counts for [from, to]. Days without
// completions are absent from the map.
func (s *StatsService) Heatmap(ctx context.Context, from, to time.Time) (map[string]int, error) {
	lower := dateIn(from, s.loc)
	upper := dateIn(to, s.loc).Add(24*time.Hour - time.Nanosecond)
	completions, err := s.taskRepo.CompletionTimesBetween(ctx, lower, upper)
	if err != nil {
		return nil, err
	}
	return stats.Heatmap(completions, lower, upper, s.loc), nil
}

// Summary tallies open, overdue, and completed-today tasks plus the
// current streak.
type Summary struct {
	Open           int64
	Overdue        int64
	CompletedToday int64
	Streak         stats.Streak
}

func (s *StatsService) Summary(ctx context.Context, now time.Time) (Summary, error) {
	dayStart := dateIn(now, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	open, overdue, completedToday, err := s.taskRepo.CountsAsOf(ctx, now, dayStart, dayEnd)
	if err != nil {
		return Summary{}, err
	}
	streak, err := s.Streak(ctx, now)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Open: open, Overdue: overdue, CompletedToday: completedToday, Streak: streak}, nil
}

// DailySummary builds a human-readable report of open tasks ordered by
// due date, with undated tasks last.
func (s *StatsService) DailySummary(ctx context.Context, now time.Time) (string, error) {
	tasks, err := s.taskRepo.ListOpen(ctx)
	if err != nil {
		return "", err
	}
	summary, err := s.Summary(ctx, now)
	if err != nil {
		return "", err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		switch {
		case tasks[i].DueDatetime == nil && tasks[j].DueDatetime == nil:
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		case tasks[i].DueDatetime == nil:
			return false
		case tasks[j].DueDatetime == nil:
			return true
		default:
			return tasks[i].DueDatetime.Before(*tasks[j].DueDatetime)
		}
	})

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Daily summary for %s\n", now.In(s.loc).Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("open: %d  overdue: %d  completed today: %d  streak: %d\n\n",
		summary.Open, summary.Overdue, summary.CompletedToday, summary.Streak.Current))

	if len(tasks) == 0 {
		builder.WriteString("no open tasks\n")
	}
	for _, task := range tasks {
		builder.WriteString(formatTask(task, now.In(s.loc)))
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatTask(task model.TaskInstance, now time.Time) string {
	var sb strings.Builder

	marker := " "
	if task.DueDatetime != nil && now.After(*task.DueDatetime) {
		marker = "!"
	}
	sb.WriteString(fmt.Sprintf("%s %s", marker, strings.TrimSpace(task.Title)))

	if task.DueDatetime != nil {
		d := task.DueDatetime.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("  (due %s, overdue)", d.Format("2006-01-02 15:04")))
		} else {
			sb.WriteString(fmt.Sprintf("  (due %s)", d.Format("2006-01-02 15:04")))
		}
	}
	if task.Labels != "" {
		sb.WriteString(fmt.Sprintf("  [%s]", task.Labels))
	}

	sb.WriteByte('\n')
	return sb.String()
}
