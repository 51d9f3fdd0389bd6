package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"taskmill/internal/model"
	"taskmill/internal/recur"
	"taskmill/internal/repository"
)

// Materializer turns due recurrence rules into concrete task instances.
// It is safe to run concurrently across processes: the batch for each rule
// commits through a compare-and-swap on the rule's marker, so at most one
// worker wins and re-runs are idempotent.
type Materializer struct {
	rules     *repository.RuleRepository
	lookahead time.Duration
	loc       *time.Location
	log       zerolog.Logger
}

func NewMaterializer(rules *repository.RuleRepository, lookahead time.Duration, loc *time.Location, log zerolog.Logger) *Materializer {
	if lookahead <= 0 {
		lookahead = 7 * 24 * time.Hour
	}
	return &Materializer{rules: rules, lookahead: lookahead, loc: loc, log: log}
}

// Materialize expands rule occurrences up to asOf plus the lookahead
// horizon and persists one instance per occurrence, advancing the rule's
// marker in the same transaction. It returns the created instances; a rule
// with nothing due yields an empty batch and no writes. Inactive and
// expired rules yield nothing without error.
func (m *Materializer) Materialize(ctx context.Context, rule model.RecurrenceRule, asOf time.Time) ([]model.TaskInstance, error) {
	if !rule.IsActive {
		return nil, nil
	}

	spec, err := ruleSpec(rule, m.loc)
	if err != nil {
		return nil, err
	}

	from := spec.StartDate
	if spec.LastGenerated != nil {
		from = *spec.LastGenerated
	}
	to := asOf.In(m.loc).Add(m.lookahead)

	occurrences := recur.Occurrences(spec, from, to)
	if len(occurrences) == 0 {
		return nil, nil
	}

	instances := make([]model.TaskInstance, 0, len(occurrences))
	for _, due := range occurrences {
		instances = append(instances, model.TaskInstance{
			RuleID:      &rule.ID,
			ProjectID:   rule.Template.ProjectID,
			Section:     rule.Template.Section,
			Title:       rule.Template.Title,
			Description: rule.Template.Description,
			Priority:    rule.Template.Priority,
			Labels:      rule.Template.Labels,
			DueDatetime: &due,
		})
	}

	last := occurrences[len(occurrences)-1]
	newMarker := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, m.loc)

	err = m.rules.CreateInstancesAndAdvance(ctx, rule.ID, rule.LastGeneratedDate, newMarker, instances)
	if err != nil {
		return nil, err
	}
	return instances, nil
}

// MaterializeDueRules runs Materialize over every active rule. Per-rule
// failures are logged and skipped; a lost marker race just means another
// worker handled that rule. Returns the number of instances created.
func (m *Materializer) MaterializeDueRules(ctx context.Context, asOf time.Time) (int, error) {
	rules, err := m.rules.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, rule := range rules {
		instances, err := m.Materialize(ctx, rule, asOf)
		switch {
		case errors.Is(err, repository.ErrMarkerConflict):
			m.log.Debug().Uint("rule", rule.ID).Msg("marker advanced elsewhere, skipping")
		case err != nil:
			m.log.Error().Err(err).Uint("rule", rule.ID).Msg("materialization failed")
		case len(instances) > 0:
			m.log.Info().Uint("rule", rule.ID).Int("instances", len(instances)).Msg("materialized")
			created += len(instances)
		}
	}
	return created, nil
}
