package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskmill/internal/model"
)

// RuleRepository manages recurrence rules and the transactional handoff
// between rule markers and materialized task instances.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.RecurrenceRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (r *RuleRepository) FindByID(ctx context.Context, id uint) (*model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	if err := r.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) ListActive(ctx context.Context) ([]model.RecurrenceRule, error) {
	var rules []model.RecurrenceRule
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("id ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleRepository) ListAll(ctx context.Context) ([]model.RecurrenceRule, error) {
	var rules []model.RecurrenceRule
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Deactivate soft-disables a rule. Rules referenced by generated instances
// are never hard-deleted; cadence edits deactivate the stale rule and
// create a fresh one.
func (r *RuleRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.RecurrenceRule{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("deactivate rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateInstancesAndAdvance persists a materialization batch atomically:
// the rule's last_generated_date moves from prevMarker to newMarker with a
// compare-and-swap, and the instances are inserted in the same transaction.
// A lost CAS (another worker advanced the marker, or the rule was
// deactivated) returns ErrMarkerConflict and writes nothing, so callers can
// safely re-invoke after a failure.
func (r *RuleRepository) CreateInstancesAndAdvance(
	ctx context.Context,
	ruleID uint,
	prevMarker *time.Time,
	newMarker time.Time,
	instances []model.TaskInstance,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.RecurrenceRule{}).
			Where("id = ? AND is_active = ?", ruleID, true)
		if prevMarker == nil {
			q = q.Where("last_generated_date IS NULL")
		} else {
			q = q.Where("last_generated_date = ?", *prevMarker)
		}
		res := q.Update("last_generated_date", newMarker)
		if res.Error != nil {
			return fmt.Errorf("advance marker: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrMarkerConflict
		}
		if len(instances) > 0 {
			if err := tx.Create(&instances).Error; err != nil {
				return fmt.Errorf("create instances: %w", err)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrMarkerConflict) {
		return fmt.Errorf("materialize rule %d: %w", ruleID, err)
	}
	return err
}
