package model

import "time"

// RecurrenceRule describes how often a task template repeats.
//
// DaysOfWeek is a comma-joined list of weekday indices (Monday=0..Sunday=6)
// and is only meaningful for weekly rules. TimeOfDay is "HH:MM" in the
// reporting timezone. LastGeneratedDate marks the most recent occurrence
// already materialized; it is nil before the first run.
type RecurrenceRule struct {
	ID                uint   `gorm:"primaryKey"`
	Unit              string `gorm:"index"`
	Interval          int
	DaysOfWeek        string
	TimeOfDay         string
	StartDate         time.Time
	EndDate           *time.Time
	LastGeneratedDate *time.Time
	IsActive          bool         `gorm:"default:true;index"`
	Template          TaskTemplate `gorm:"embedded;embeddedPrefix:template_"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TaskTemplate holds the fields copied onto every materialized instance.
type TaskTemplate struct {
	Title       string
	Description string
	ProjectID   *uint
	Section     string
	Priority    int
	Labels      string
}
