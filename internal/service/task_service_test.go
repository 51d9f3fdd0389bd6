package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmill/internal/recur"
	"taskmill/internal/repository"
)

func newTaskService(t *testing.T) (*TaskService, context.Context) {
	t.Helper()
	db := openTestDB(t)
	return NewTaskService(
		repository.NewRuleRepository(db),
		repository.NewTaskRepository(db),
		repository.NewProjectRepository(db),
		time.UTC,
	), context.Background()
}

func TestCreateRule(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid weekly rule", func(t *testing.T) {
		svc, ctx := newTaskService(t)
		rule, err := svc.CreateRule(ctx, RuleInput{
			Unit:       "weeks",
			Interval:   1,
			DaysOfWeek: []int{4, 0, 2},
			TimeOfDay:  "07:30",
			StartDate:  start,
			Title:      "review inbox",
			Project:    "work",
			Priority:   1,
		})
		require.NoError(t, err)
		assert.Equal(t, "0,2,4", rule.DaysOfWeek)
		assert.True(t, rule.IsActive)
		require.NotNil(t, rule.Template.ProjectID)

		rules, err := svc.ListRules(ctx)
		require.NoError(t, err)
		assert.Len(t, rules, 1)
	})

	t.Run("invalid rules persist nothing", func(t *testing.T) {
		svc, ctx := newTaskService(t)
		inputs := []RuleInput{
			{Unit: "days", Interval: 0, StartDate: start, Title: "x"},
			{Unit: "weeks", Interval: 1, StartDate: start, Title: "x"},
			{Unit: "days", Interval: 1, StartDate: start, Title: ""},
			{Unit: "days", Interval: 1, StartDate: start, TimeOfDay: "25:00", Title: "x"},
		}
		for _, input := range inputs {
			_, err := svc.CreateRule(ctx, input)
			assert.ErrorIs(t, err, recur.ErrInvalidRule)
		}

		rules, err := svc.ListRules(ctx)
		require.NoError(t, err)
		assert.Empty(t, rules)
	})

	t.Run("end date before start date", func(t *testing.T) {
		svc, ctx := newTaskService(t)
		end := start.AddDate(0, 0, -1)
		_, err := svc.CreateRule(ctx, RuleInput{
			Unit: "days", Interval: 1, StartDate: start, EndDate: &end, Title: "x",
		})
		assert.ErrorIs(t, err, recur.ErrInvalidRule)
	})
}

func TestCreateTaskOneOff(t *testing.T) {
	svc, ctx := newTaskService(t)

	due := time.Date(2024, time.March, 1, 17, 0, 0, 0, time.UTC)
	task, err := svc.CreateTask(ctx, TaskInput{
		Title:   "file taxes",
		Project: "life admin",
		Due:     &due,
	})
	require.NoError(t, err)
	assert.Nil(t, task.RuleID)
	require.NotNil(t, task.ProjectID)

	// Same project name resolves to the same project.
	other, err := svc.CreateTask(ctx, TaskInput{Title: "renew passport", Project: "life admin"})
	require.NoError(t, err)
	assert.Equal(t, *task.ProjectID, *other.ProjectID)

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}
