package rules

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and mutates the rule tables. The validation engine only
// uses the FindActive* queries; the admin surface owns the mutations and is
// responsible for invalidating the resolver cache afterwards.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const fieldRuleColumns = `id, rule_code, target_entity, target_field, validation_rule,
	validation_value, custom_validator, error_message, error_severity, block_submission,
	category, status, source_system, entity_type, request_type, priority, locale, active`

const sectionRuleColumns = `id, rule_code, section_name, section_label, minimum_count,
	maximum_count, filter_criteria, min_error_message, max_error_message, block_submission,
	status, source_system, entity_type, request_type, priority, locale, active`

// FindActiveFieldRules returns all active field rules for a locale, ordered
// by priority. Context matching happens in the resolver, not in SQL.
func (r *Repository) FindActiveFieldRules(ctx context.Context, locale string) ([]*FieldRule, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+fieldRuleColumns+" FROM _validation_rules WHERE active = true AND locale = $1 ORDER BY priority",
		locale)
	if err != nil {
		return nil, fmt.Errorf("query field rules: %w", err)
	}
	defer rows.Close()

	var result []*FieldRule
	for rows.Next() {
		var rule FieldRule
		var targetEntity, targetField, value, custom, category *string
		if err := rows.Scan(&rule.ID, &rule.RuleCode, &targetEntity, &targetField, &rule.Kind,
			&value, &custom, &rule.ErrorMessage, &rule.Severity, &rule.BlockSubmission,
			&category, &rule.Status, &rule.SourceSystem, &rule.EntityType, &rule.RequestType,
			&rule.Priority, &rule.Locale, &rule.Active); err != nil {
			return nil, fmt.Errorf("scan field rule: %w", err)
		}
		rule.TargetEntity = deref(targetEntity)
		rule.TargetField = deref(targetField)
		rule.Value = deref(value)
		rule.CustomValidator = deref(custom)
		rule.Category = deref(category)
		result = append(result, &rule)
	}
	return result, rows.Err()
}

// FindActiveSectionRules returns all active section rules for a locale,
// ordered by priority, with filter criteria compiled. A rule whose criteria
// fails to parse is kept unfiltered rather than dropped.
func (r *Repository) FindActiveSectionRules(ctx context.Context, locale string) ([]*SectionRule, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+sectionRuleColumns+" FROM _section_rules WHERE active = true AND locale = $1 ORDER BY priority",
		locale)
	if err != nil {
		return nil, fmt.Errorf("query section rules: %w", err)
	}
	defer rows.Close()

	var result []*SectionRule
	for rows.Next() {
		var rule SectionRule
		var label, criteria, minMsg, maxMsg *string
		if err := rows.Scan(&rule.ID, &rule.RuleCode, &rule.SectionName, &label, &rule.MinimumCount,
			&rule.MaximumCount, &criteria, &minMsg, &maxMsg, &rule.BlockSubmission,
			&rule.Status, &rule.SourceSystem, &rule.EntityType, &rule.RequestType,
			&rule.Priority, &rule.Locale, &rule.Active); err != nil {
			return nil, fmt.Errorf("scan section rule: %w", err)
		}
		rule.SectionLabel = deref(label)
		rule.FilterCriteria = deref(criteria)
		rule.MinErrorMessage = deref(minMsg)
		rule.MaxErrorMessage = deref(maxMsg)

		if rule.FilterCriteria != "" {
			filter, err := ParseFilter(rule.FilterCriteria)
			if err != nil {
				log.Printf("WARN: section rule %s has invalid filter criteria, counting unfiltered: %v", rule.RuleCode, err)
			} else {
				rule.Filter = filter
			}
		}
		result = append(result, &rule)
	}
	return result, rows.Err()
}

// --- Field rule mutations ---

func (r *Repository) CreateFieldRule(ctx context.Context, rule *FieldRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO _validation_rules (id, rule_code, target_entity, target_field, validation_rule,
		     validation_value, custom_validator, error_message, error_severity, block_submission,
		     category, status, source_system, entity_type, request_type, priority, locale, active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		rule.ID, rule.RuleCode, emptyToNil(rule.TargetEntity), emptyToNil(rule.TargetField), rule.Kind,
		emptyToNil(rule.Value), emptyToNil(rule.CustomValidator), rule.ErrorMessage, rule.Severity, rule.BlockSubmission,
		emptyToNil(rule.Category), rule.Status, rule.SourceSystem, rule.EntityType, rule.RequestType,
		rule.Priority, rule.Locale, rule.Active)
	if err != nil {
		return fmt.Errorf("insert field rule: %w", err)
	}
	return nil
}

func (r *Repository) UpdateFieldRule(ctx context.Context, rule *FieldRule) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE _validation_rules SET rule_code=$2, target_entity=$3, target_field=$4, validation_rule=$5,
		     validation_value=$6, custom_validator=$7, error_message=$8, error_severity=$9, block_submission=$10,
		     category=$11, status=$12, source_system=$13, entity_type=$14, request_type=$15,
		     priority=$16, locale=$17, active=$18, updated_at=NOW()
		 WHERE id=$1`,
		rule.ID, rule.RuleCode, emptyToNil(rule.TargetEntity), emptyToNil(rule.TargetField), rule.Kind,
		emptyToNil(rule.Value), emptyToNil(rule.CustomValidator), rule.ErrorMessage, rule.Severity, rule.BlockSubmission,
		emptyToNil(rule.Category), rule.Status, rule.SourceSystem, rule.EntityType, rule.RequestType,
		rule.Priority, rule.Locale, rule.Active)
	if err != nil {
		return fmt.Errorf("update field rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("field rule %s: not found", rule.ID)
	}
	return nil
}

func (r *Repository) DeleteFieldRule(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM _validation_rules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete field rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("field rule %s: not found", id)
	}
	return nil
}

// ToggleFieldRule flips the active flag and returns the new state.
func (r *Repository) ToggleFieldRule(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		"UPDATE _validation_rules SET active = NOT active, updated_at = NOW() WHERE id = $1 RETURNING active",
		id).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("toggle field rule %s: %w", id, err)
	}
	return active, nil
}

// DuplicateFieldRule copies a rule under a new id with a _COPY code suffix.
// The copy starts inactive so it can be adjusted before taking effect.
func (r *Repository) DuplicateFieldRule(ctx context.Context, id string) (string, error) {
	newID := uuid.NewString()
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO _validation_rules (id, rule_code, target_entity, target_field, validation_rule,
		     validation_value, custom_validator, error_message, error_severity, block_submission,
		     category, status, source_system, entity_type, request_type, priority, locale, active)
		 SELECT $2, rule_code || '_COPY', target_entity, target_field, validation_rule,
		     validation_value, custom_validator, error_message, error_severity, block_submission,
		     category, status, source_system, entity_type, request_type, priority, locale, false
		 FROM _validation_rules WHERE id = $1`,
		id, newID)
	if err != nil {
		return "", fmt.Errorf("duplicate field rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", fmt.Errorf("field rule %s: not found", id)
	}
	return newID, nil
}

// CloneFieldRules bulk-copies every rule of one (status, sourceSystem) scope
// into another, inactive and code-suffixed, and returns how many were copied.
func (r *Repository) CloneFieldRules(ctx context.Context, fromStatus, fromSource, toStatus, toSource string) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO _validation_rules (id, rule_code, target_entity, target_field, validation_rule,
		     validation_value, custom_validator, error_message, error_severity, block_submission,
		     category, status, source_system, entity_type, request_type, priority, locale, active)
		 SELECT gen_random_uuid(), rule_code || '_CLONE', target_entity, target_field, validation_rule,
		     validation_value, custom_validator, error_message, error_severity, block_submission,
		     category, $3, $4, entity_type, request_type, priority, locale, false
		 FROM _validation_rules WHERE status = $1 AND source_system = $2`,
		fromStatus, fromSource, emptyToNil(toStatus), emptyToNil(toSource))
	if err != nil {
		return 0, fmt.Errorf("clone field rules: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// --- Section rule mutations ---

func (r *Repository) CreateSectionRule(ctx context.Context, rule *SectionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO _section_rules (id, rule_code, section_name, section_label, minimum_count,
		     maximum_count, filter_criteria, min_error_message, max_error_message, block_submission,
		     status, source_system, entity_type, request_type, priority, locale, active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		rule.ID, rule.RuleCode, rule.SectionName, emptyToNil(rule.SectionLabel), rule.MinimumCount,
		rule.MaximumCount, emptyToNil(rule.FilterCriteria), emptyToNil(rule.MinErrorMessage),
		emptyToNil(rule.MaxErrorMessage), rule.BlockSubmission,
		rule.Status, rule.SourceSystem, rule.EntityType, rule.RequestType,
		rule.Priority, rule.Locale, rule.Active)
	if err != nil {
		return fmt.Errorf("insert section rule: %w", err)
	}
	return nil
}

func (r *Repository) UpdateSectionRule(ctx context.Context, rule *SectionRule) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE _section_rules SET rule_code=$2, section_name=$3, section_label=$4, minimum_count=$5,
		     maximum_count=$6, filter_criteria=$7, min_error_message=$8, max_error_message=$9,
		     block_submission=$10, status=$11, source_system=$12, entity_type=$13, request_type=$14,
		     priority=$15, locale=$16, active=$17, updated_at=NOW()
		 WHERE id=$1`,
		rule.ID, rule.RuleCode, rule.SectionName, emptyToNil(rule.SectionLabel), rule.MinimumCount,
		rule.MaximumCount, emptyToNil(rule.FilterCriteria), emptyToNil(rule.MinErrorMessage),
		emptyToNil(rule.MaxErrorMessage), rule.BlockSubmission,
		rule.Status, rule.SourceSystem, rule.EntityType, rule.RequestType,
		rule.Priority, rule.Locale, rule.Active)
	if err != nil {
		return fmt.Errorf("update section rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("section rule %s: not found", rule.ID)
	}
	return nil
}

func (r *Repository) DeleteSectionRule(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM _section_rules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete section rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("section rule %s: not found", id)
	}
	return nil
}

func (r *Repository) ToggleSectionRule(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx,
		"UPDATE _section_rules SET active = NOT active, updated_at = NOW() WHERE id = $1 RETURNING active",
		id).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("toggle section rule %s: %w", id, err)
	}
	return active, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
