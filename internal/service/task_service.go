package service

import (
	"context"
	"fmt"
	"time"

	"taskmill/internal/model"
	"taskmill/internal/recur"
	"taskmill/internal/repository"
)

// RuleInput represents data required to create a recurrence rule.
type RuleInput struct {
	Unit        string
	Interval    int
	DaysOfWeek  []int
	TimeOfDay   string
	StartDate   time.Time
	EndDate     *time.Time
	Title       string
	Description string
	Project     string
	Section     string
	Priority    int
	Labels      string
}

// TaskInput represents data required to create a one-off task.
type TaskInput struct {
	Title       string
	Description string
	Project     string
	Section     string
	Priority    int
	Labels      string
	Due         *time.Time
}

// TaskService wraps rule and task business logic.
type TaskService struct {
	ruleRepo    *repository.RuleRepository
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
	loc         *time.Location
}

func NewTaskService(ruleRepo *repository.RuleRepository, taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository, loc *time.Location) *TaskService {
	return &TaskService{ruleRepo: ruleRepo, taskRepo: taskRepo, projectRepo: projectRepo, loc: loc}
}

// CreateRule validates and stores a new recurrence rule. Validation errors
// wrap recur.ErrInvalidRule and nothing is persisted on failure.
func (s *TaskService) CreateRule(ctx context.Context, input RuleInput) (*model.RecurrenceRule, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", recur.ErrInvalidRule)
	}
	if input.TimeOfDay == "" {
		input.TimeOfDay = "09:00"
	}

	hour, minute, err := recur.ParseClock(input.TimeOfDay)
	if err != nil {
		return nil, err
	}

	spec := recur.Rule{
		Unit:       recur.Unit(input.Unit),
		Interval:   input.Interval,
		DaysOfWeek: input.DaysOfWeek,
		Hour:       hour,
		Minute:     minute,
		StartDate:  dateIn(input.StartDate, s.loc),
		Active:     true,
	}
	if input.EndDate != nil {
		end := dateIn(*input.EndDate, s.loc)
		spec.EndDate = &end
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	projectID, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, err
	}

	rule := model.RecurrenceRule{
		Unit:       input.Unit,
		Interval:   input.Interval,
		DaysOfWeek: recur.FormatWeekdaySet(input.DaysOfWeek),
		TimeOfDay:  input.TimeOfDay,
		StartDate:  spec.StartDate,
		EndDate:    spec.EndDate,
		IsActive:   true,
		Template: model.TaskTemplate{
			Title:       input.Title,
			Description: input.Description,
			ProjectID:   projectID,
			Section:     input.Section,
			Priority:    input.Priority,
			Labels:      input.Labels,
		},
	}

	if err := s.ruleRepo.Create(ctx, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// DeactivateRule soft-disables a rule; its generated instances remain.
func (s *TaskService) DeactivateRule(ctx context.Context, ruleID uint) error {
	return s.ruleRepo.Deactivate(ctx, ruleID)
}

func (s *TaskService) ListRules(ctx context.Context) ([]model.RecurrenceRule, error) {
	return s.ruleRepo.ListAll(ctx)
}

// CreateTask stores a one-off task with no originating rule.
func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.TaskInstance, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	projectID, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, err
	}

	task := model.TaskInstance{
		ProjectID:   projectID,
		Section:     input.Section,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Labels:      input.Labels,
		DueDatetime: input.Due,
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) ListOpen(ctx context.Context) ([]model.TaskInstance, error) {
	return s.taskRepo.ListOpen(ctx)
}

// CompleteTask marks a task as done. Completing twice keeps the first
// completion time.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uint, completedAt time.Time) (*model.TaskInstance, error) {
	return s.taskRepo.Complete(ctx, taskID, completedAt)
}

// ReopenTask reverts a completion and removes it from the ledger.
func (s *TaskService) ReopenTask(ctx context.Context, taskID uint) (*model.TaskInstance, error) {
	return s.taskRepo.Reopen(ctx, taskID)
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) error {
	return s.taskRepo.Delete(ctx, taskID)
}

func (s *TaskService) resolveProject(ctx context.Context, name string) (*uint, error) {
	if name == "" {
		return nil, nil
	}
	project, err := s.projectRepo.GetOrCreate(ctx, name)
	if err != nil || project == nil {
		return nil, err
	}
	return &project.ID, nil
}
