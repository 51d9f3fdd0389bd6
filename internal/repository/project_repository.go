package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskmill/internal/model"
)

// ProjectRepository manages task projects.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetOrCreate(ctx context.Context, name string) (*model.Project, error) {
	if name == "" {
		return nil, nil
	}

	var project model.Project
	db := r.db.WithContext(ctx)
	err := db.Where("name = ?", name).First(&project).Error
	switch {
	case err == nil:
		return &project, nil
	case err == gorm.ErrRecordNotFound:
		project = model.Project{Name: name}
		if err := db.Create(&project).Error; err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
		return &project, nil
	default:
		return nil, fmt.Errorf("find project: %w", err)
	}
}

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
