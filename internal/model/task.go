package model

import "time"

// TaskInstance is a concrete task row. Recurring instances carry a
// back-reference to the rule that produced them; one-off tasks leave
// RuleID nil.
type TaskInstance struct {
	ID          uint  `gorm:"primaryKey"`
	RuleID      *uint `gorm:"index"`
	ProjectID   *uint `gorm:"index"`
	Section     string
	Title       string
	Description string
	Priority    int
	Labels      string
	DueDatetime *time.Time
	IsCompleted bool       `gorm:"default:false;index"`
	CompletedAt *time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
