package stores

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openjoinery/joinery/pkg/engine"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const templateColumns = `id, code, name, category, description, version,
	base_thickness, back_panel_thickness, plinth_height`

func scanTemplate(row rowScanner) (*engine.Template, error) {
	t := &engine.Template{}
	err := row.Scan(
		&t.ID,
		&t.Code,
		&t.Name,
		&t.Category,
		&t.Description,
		&t.Version,
		&t.BaseThickness,
		&t.BackPanelThickness,
		&t.PlinthHeight,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SaveDefinition stores a template with all of its rule lists. A template
// with the same code is replaced in place, keeping its ID so that products
// stay attached. Validation rules receive positions in slice order.
func (s *SQLiteStore) SaveDefinition(ctx context.Context, def *engine.Definition) (*engine.Template, error) {
	tmpl := def.Template
	if strings.TrimSpace(tmpl.Code) == "" {
		return nil, fmt.Errorf("template code is required")
	}
	if tmpl.Version == 0 {
		tmpl.Version = 1
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM templates WHERE code = ?`, tmpl.Code).Scan(&existingID)
		switch {
		case err == sql.ErrNoRows:
			if tmpl.ID == "" {
				tmpl.ID = uuid.New().String()
			}
			if err := insertTemplate(ctx, tx, &tmpl); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("failed to look up template: %w", err)
		default:
			tmpl.ID = existingID
			if err := updateTemplate(ctx, tx, &tmpl); err != nil {
				return err
			}
			if err := deleteTemplateRules(ctx, tx, tmpl.ID); err != nil {
				return err
			}
		}

		return insertTemplateRules(ctx, tx, tmpl.ID, def)
	})
	if err != nil {
		return nil, err
	}

	def.Template = tmpl
	return &tmpl, nil
}

func insertTemplate(ctx context.Context, tx *sql.Tx, t *engine.Template) error {
	query := `
		INSERT INTO templates (id, code, name, category, description, version,
			base_thickness, back_panel_thickness, plinth_height, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	_, err := tx.ExecContext(ctx, query,
		t.ID,
		t.Code,
		t.Name,
		t.Category,
		t.Description,
		t.Version,
		t.BaseThickness,
		t.BackPanelThickness,
		t.PlinthHeight,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func updateTemplate(ctx context.Context, tx *sql.Tx, t *engine.Template) error {
	query := `
		UPDATE templates
		SET name = ?, category = ?, description = ?, version = ?,
			base_thickness = ?, back_panel_thickness = ?, plinth_height = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := tx.ExecContext(ctx, query,
		t.Name,
		t.Category,
		t.Description,
		t.Version,
		t.BaseThickness,
		t.BackPanelThickness,
		t.PlinthHeight,
		time.Now().UTC(),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

func deleteTemplateRules(ctx context.Context, tx *sql.Tx, templateID string) error {
	tables := []string{
		"template_params",
		"template_derived_vars",
		"template_part_rules",
		"template_validation_rules",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE template_id = ?", templateID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func insertTemplateRules(ctx context.Context, tx *sql.Tx, templateID string, def *engine.Definition) error {
	for _, p := range def.Params {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO template_params (id, template_id, name, default_value, min_value, max_value, required, label, help_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), templateID, p.Name, p.Default, p.Min, p.Max, p.Required, p.Label, p.HelpText,
		)
		if err != nil {
			return fmt.Errorf("failed to create param %s: %w", p.Name, err)
		}
	}

	for _, d := range def.DerivedVars {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO template_derived_vars (id, template_id, name, formula, execution_order)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), templateID, d.Name, d.Formula, d.Order,
		)
		if err != nil {
			return fmt.Errorf("failed to create derived var %s: %w", d.Name, err)
		}
	}

	for _, r := range def.PartRules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO template_part_rules (id, template_id, part_name, part_type, width_expr, height_expr,
				thickness_expr, qty_expr, material_type, edge_banding, grain_direction, execution_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), templateID, r.PartName, r.PartType, r.WidthExpr, r.HeightExpr,
			r.ThicknessExpr, r.QtyExpr, r.MaterialType, r.EdgeBanding, r.GrainDirection, r.Order,
		)
		if err != nil {
			return fmt.Errorf("failed to create part rule %s: %w", r.PartName, err)
		}
	}

	// Positions are renumbered densely from 1 in the caller's position
	// order; ties keep slice order.
	rules := append([]engine.ValidationRule(nil), def.ValidationRules...)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Position < rules[j].Position
	})
	for i, v := range rules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO template_validation_rules (id, template_id, condition_expr, error_message, position)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), templateID, v.Condition, v.Message, i+1,
		)
		if err != nil {
			return fmt.Errorf("failed to create validation rule: %w", err)
		}
	}

	return nil
}

// GetTemplate retrieves a template by ID
func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*engine.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`

	t, err := scanTemplate(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, notFound("template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// GetTemplateByCode retrieves a template by its unique code
func (s *SQLiteStore) GetTemplateByCode(ctx context.Context, code string) (*engine.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE code = ?`

	t, err := scanTemplate(s.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, notFound("template", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// ListTemplates lists all templates ordered by code
func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]*engine.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY code`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []*engine.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// LoadDefinition returns the full snapshot of the template with code.
func (s *SQLiteStore) LoadDefinition(ctx context.Context, code string) (*engine.Definition, error) {
	t, err := s.GetTemplateByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return engine.LoadDefinition(ctx, s, *t)
}

// DeleteTemplate deletes a template and its rules. Products using it fall
// back to template-less generation.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return checkAffected(result, "template", id)
}

// Params implements engine.TemplateDefinitionProvider.
func (s *SQLiteStore) Params(ctx context.Context, templateID string) ([]engine.Param, error) {
	query := `
		SELECT name, default_value, min_value, max_value, required, label, help_text
		FROM template_params
		WHERE template_id = ?
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list params: %w", err)
	}
	defer rows.Close()

	params := []engine.Param{}
	for rows.Next() {
		var p engine.Param
		if err := rows.Scan(&p.Name, &p.Default, &p.Min, &p.Max, &p.Required, &p.Label, &p.HelpText); err != nil {
			return nil, fmt.Errorf("failed to scan param: %w", err)
		}
		params = append(params, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating params: %w", err)
	}

	return params, nil
}

// DerivedVars implements engine.TemplateDefinitionProvider.
func (s *SQLiteStore) DerivedVars(ctx context.Context, templateID string) ([]engine.DerivedVar, error) {
	query := `
		SELECT name, formula, execution_order
		FROM template_derived_vars
		WHERE template_id = ?
		ORDER BY execution_order, rowid
	`

	rows, err := s.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list derived vars: %w", err)
	}
	defer rows.Close()

	vars := []engine.DerivedVar{}
	for rows.Next() {
		var d engine.DerivedVar
		if err := rows.Scan(&d.Name, &d.Formula, &d.Order); err != nil {
			return nil, fmt.Errorf("failed to scan derived var: %w", err)
		}
		vars = append(vars, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating derived vars: %w", err)
	}

	return vars, nil
}

// PartRules implements engine.TemplateDefinitionProvider.
func (s *SQLiteStore) PartRules(ctx context.Context, templateID string) ([]engine.PartRule, error) {
	query := `
		SELECT part_name, part_type, width_expr, height_expr, thickness_expr, qty_expr,
			   material_type, edge_banding, grain_direction, execution_order
		FROM template_part_rules
		WHERE template_id = ?
		ORDER BY execution_order, rowid
	`

	rows, err := s.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list part rules: %w", err)
	}
	defer rows.Close()

	rules := []engine.PartRule{}
	for rows.Next() {
		var r engine.PartRule
		err := rows.Scan(
			&r.PartName,
			&r.PartType,
			&r.WidthExpr,
			&r.HeightExpr,
			&r.ThicknessExpr,
			&r.QtyExpr,
			&r.MaterialType,
			&r.EdgeBanding,
			&r.GrainDirection,
			&r.Order,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan part rule: %w", err)
		}
		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating part rules: %w", err)
	}

	return rules, nil
}

// ValidationRules implements engine.TemplateDefinitionProvider.
func (s *SQLiteStore) ValidationRules(ctx context.Context, templateID string) ([]engine.ValidationRule, error) {
	query := `
		SELECT condition_expr, error_message, position
		FROM template_validation_rules
		WHERE template_id = ?
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation rules: %w", err)
	}
	defer rows.Close()

	rules := []engine.ValidationRule{}
	for rows.Next() {
		var v engine.ValidationRule
		if err := rows.Scan(&v.Condition, &v.Message, &v.Position); err != nil {
			return nil, fmt.Errorf("failed to scan validation rule: %w", err)
		}
		rules = append(rules, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating validation rules: %w", err)
	}

	return rules, nil
}
