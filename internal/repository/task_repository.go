package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskmill/internal/model"
)

// TaskRepository handles CRUD for task instances and serves the completion
// ledger queries.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.TaskInstance) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.TaskInstance, error) {
	var task model.TaskInstance
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) ListOpen(ctx context.Context) ([]model.TaskInstance, error) {
	var tasks []model.TaskInstance
	if err := r.db.WithContext(ctx).Where("is_completed = ?", false).
		Order("due_datetime NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) ListByRule(ctx context.Context, ruleID uint) ([]model.TaskInstance, error) {
	var tasks []model.TaskInstance
	if err := r.db.WithContext(ctx).Where("rule_id = ?", ruleID).
		Order("due_datetime ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Complete records the open->done transition. Completing an already
// completed task is a no-op that keeps the original completion time, so
// the ledger only ever reflects the latest transition.
func (r *TaskRepository) Complete(ctx context.Context, taskID uint, completedAt time.Time) (*model.TaskInstance, error) {
	res := r.db.WithContext(ctx).Model(&model.TaskInstance{}).
		Where("id = ? AND is_completed = ?", taskID, false).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("complete task: %w", res.Error)
	}
	return r.FindByID(ctx, taskID)
}

// Reopen reverts a completion. The completion timestamp is cleared so the
// task no longer counts in the ledger until it is completed again.
func (r *TaskRepository) Reopen(ctx context.Context, taskID uint) (*model.TaskInstance, error) {
	res := r.db.WithContext(ctx).Model(&model.TaskInstance{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"is_completed": false,
			"completed_at": gorm.Expr("NULL"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("reopen task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, taskID)
}

// Delete removes a one-off or generated task.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.TaskInstance{}, taskID).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// CompletionTimes returns the completion timestamps of all currently
// completed tasks. Reopened tasks have no completion time and are absent.
func (r *TaskRepository) CompletionTimes(ctx context.Context) ([]time.Time, error) {
	var times []time.Time
	if err := r.db.WithContext(ctx).Model(&model.TaskInstance{}).
		Where("is_completed = ? AND completed_at IS NOT NULL", true).
		Order("completed_at ASC").
		Pluck("completed_at", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

// CompletionTimesBetween narrows CompletionTimes to [from, to].
func (r *TaskRepository) CompletionTimesBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	if err := r.db.WithContext(ctx).Model(&model.TaskInstance{}).
		Where("is_completed = ? AND completed_at >= ? AND completed_at <= ?", true, from, to).
		Order("completed_at ASC").
		Pluck("completed_at", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

// CountsAsOf tallies open, overdue, and completed-today tasks for the
// daily summary.
func (r *TaskRepository) CountsAsOf(ctx context.Context, now time.Time, dayStart, dayEnd time.Time) (open, overdue, completedToday int64, err error) {
	db := r.db.WithContext(ctx).Model(&model.TaskInstance{})
	if err = db.Where("is_completed = ?", false).Count(&open).Error; err != nil {
		return 0, 0, 0, err
	}
	db = r.db.WithContext(ctx).Model(&model.TaskInstance{})
	if err = db.Where("is_completed = ? AND due_datetime < ?", false, now).Count(&overdue).Error; err != nil {
		return 0, 0, 0, err
	}
	db = r.db.WithContext(ctx).Model(&model.TaskInstance{})
	if err = db.Where("is_completed = ? AND completed_at >= ? AND completed_at < ?", true, dayStart, dayEnd).
		Count(&completedToday).Error; err != nil {
		return 0, 0, 0, err
	}
	return open, overdue, completedToday, nil
}
