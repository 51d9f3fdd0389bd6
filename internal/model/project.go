package model

import "time"

// Project groups tasks by area (work, health, study, etc.).
type Project struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []TaskInstance `gorm:"foreignKey:ProjectID"`
}
