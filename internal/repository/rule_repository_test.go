package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskmill/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func testRule(t *testing.T, db *gorm.DB) *model.RecurrenceRule {
	t.Helper()
	rule := &model.RecurrenceRule{
		Unit:      "days",
		Interval:  1,
		TimeOfDay: "09:00",
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
		Template:  model.TaskTemplate{Title: "water the plants", Priority: 4},
	}
	require.NoError(t, NewRuleRepository(db).Create(context.Background(), rule))
	return rule
}

func TestRuleRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list active", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRuleRepository(db)
		rule := testRule(t, db)

		rules, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, rule.ID, rules[0].ID)
		assert.Equal(t, "water the plants", rules[0].Template.Title)
		assert.Nil(t, rules[0].LastGeneratedDate)
	})

	t.Run("deactivate hides from active list", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRuleRepository(db)
		rule := testRule(t, db)

		require.NoError(t, repo.Deactivate(ctx, rule.ID))

		rules, err := repo.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, rules)

		got, err := repo.FindByID(ctx, rule.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("deactivate missing rule", func(t *testing.T) {
		db := openTestDB(t)
		err := NewRuleRepository(db).Deactivate(ctx, 999)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestCreateInstancesAndAdvance(t *testing.T) {
	ctx := context.Background()

	instancesFor := func(rule *model.RecurrenceRule, due time.Time) []model.TaskInstance {
		return []model.TaskInstance{{
			RuleID:      &rule.ID,
			Title:       rule.Template.Title,
			Priority:    rule.Template.Priority,
			DueDatetime: &due,
		}}
	}

	t.Run("first advance from nil marker", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRuleRepository(db)
		tasks := NewTaskRepository(db)
		rule := testRule(t, db)

		marker := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
		err := repo.CreateInstancesAndAdvance(ctx, rule.ID, nil, marker, instancesFor(rule, marker))
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, rule.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastGeneratedDate)
		assert.Equal(t, marker.Unix(), got.LastGeneratedDate.Unix())

		created, err := tasks.ListByRule(ctx, rule.ID)
		require.NoError(t, err)
		assert.Len(t, created, 1)
	})

	t.Run("stale marker loses the swap and writes nothing", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRuleRepository(db)
		tasks := NewTaskRepository(db)
		rule := testRule(t, db)

		first := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.CreateInstancesAndAdvance(ctx, rule.ID, nil, first, instancesFor(rule, first)))

		// A second worker still holding the nil marker must not duplicate.
		second := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
		err := repo.CreateInstancesAndAdvance(ctx, rule.ID, nil, second, instancesFor(rule, second))
		assert.ErrorIs(t, err, ErrMarkerConflict)

		created, err := tasks.ListByRule(ctx, rule.ID)
		require.NoError(t, err)
		assert.Len(t, created, 1)

		got, err := repo.FindByID(ctx, rule.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Unix(), got.LastGeneratedDate.Unix())
	})

	t.Run("deactivated rule refuses the advance", func(t *testing.T) {
		db := openTestDB(t)
		repo := NewRuleRepository(db)
		rule := testRule(t, db)
		require.NoError(t, repo.Deactivate(ctx, rule.ID))

		marker := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
		err := repo.CreateInstancesAndAdvance(ctx, rule.ID, nil, marker, instancesFor(rule, marker))
		assert.ErrorIs(t, err, ErrMarkerConflict)
	})
}
