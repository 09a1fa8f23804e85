package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/port"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
)

// TemplateRepository handles workflow template database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new template. Step definitions are stored as a JSON
// document and never updated in place afterwards.
func (r *TemplateRepository) Create(ctx context.Context, tmpl *entity.WorkflowTemplate) error {
	stepsJSON, err := json.Marshal(tmpl.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal template steps: %w", err)
	}

	query := `
		INSERT INTO workflow_templates (
			name, description, category, department, steps,
			is_active, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		tmpl.Name,
		tmpl.Description,
		string(tmpl.Category),
		tmpl.Department,
		string(stepsJSON),
		tmpl.IsActive,
		tmpl.CreatedBy,
		tmpl.CreatedAt,
		tmpl.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create template", zap.Error(err))
		return &workflow.PersistenceError{Op: "create template", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return &workflow.PersistenceError{Op: "create template", Err: err}
	}

	tmpl.ID = id
	return nil
}

// GetByID retrieves a template by ID.
func (r *TemplateRepository) GetByID(ctx context.Context, id int64) (*entity.WorkflowTemplate, error) {
	query := `
		SELECT id, name, description, category, department, steps,
			is_active, created_by, created_at, updated_at
		FROM workflow_templates
		WHERE id = ?
	`

	tmpl, err := r.scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &workflow.NotFoundError{Kind: "template", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.Int64("id", id), zap.Error(err))
		return nil, &workflow.PersistenceError{Op: "get template", Err: err}
	}

	return tmpl, nil
}

// List retrieves templates matching the filter, newest first.
func (r *TemplateRepository) List(ctx context.Context, filter port.TemplateFilter, limit, offset int) ([]*entity.WorkflowTemplate, error) {
	query := `
		SELECT id, name, description, category, department, steps,
			is_active, created_by, created_at, updated_at
		FROM workflow_templates
		WHERE 1 = 1
	`
	var args []any

	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, string(filter.Category))
	}
	if filter.Department != "" {
		query += " AND department = ?"
		args = append(args, filter.Department)
	}
	if filter.IsActive != nil {
		query += " AND is_active = ?"
		args = append(args, *filter.IsActive)
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.Error(err))
		return nil, &workflow.PersistenceError{Op: "list templates", Err: err}
	}
	defer rows.Close()

	var templates []*entity.WorkflowTemplate
	for rows.Next() {
		tmpl, err := r.scanTemplate(rows)
		if err != nil {
			return nil, &workflow.PersistenceError{Op: "list templates", Err: err}
		}
		templates = append(templates, tmpl)
	}

	if err := rows.Err(); err != nil {
		return nil, &workflow.PersistenceError{Op: "list templates", Err: err}
	}
	return templates, nil
}

// UpdateMetadata updates name, description and active flag. The steps column
// is deliberately left out: templates are structurally immutable.
func (r *TemplateRepository) UpdateMetadata(ctx context.Context, tmpl *entity.WorkflowTemplate) error {
	query := `
		UPDATE workflow_templates
		SET name = ?, description = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		tmpl.Name,
		tmpl.Description,
		tmpl.IsActive,
		time.Now(),
		tmpl.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update template", zap.Int64("id", tmpl.ID), zap.Error(err))
		return &workflow.PersistenceError{Op: "update template", Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &workflow.PersistenceError{Op: "update template", Err: err}
	}
	if affected == 0 {
		return &workflow.NotFoundError{Kind: "template", ID: tmpl.ID}
	}
	return nil
}

// Delete removes a template. Reference checks against live instances happen
// in the service layer before this is called.
func (r *TemplateRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_templates WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete template", zap.Int64("id", id), zap.Error(err))
		return &workflow.PersistenceError{Op: "delete template", Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &workflow.PersistenceError{Op: "delete template", Err: err}
	}
	if affected == 0 {
		return &workflow.NotFoundError{Kind: "template", ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TemplateRepository) scanTemplate(row rowScanner) (*entity.WorkflowTemplate, error) {
	var tmpl entity.WorkflowTemplate
	var category, stepsJSON string

	err := row.Scan(
		&tmpl.ID,
		&tmpl.Name,
		&tmpl.Description,
		&category,
		&tmpl.Department,
		&stepsJSON,
		&tmpl.IsActive,
		&tmpl.CreatedBy,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tmpl.Category = entity.TemplateCategory(category)
	if err := json.Unmarshal([]byte(stepsJSON), &tmpl.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template steps: %w", err)
	}
	return &tmpl, nil
}
