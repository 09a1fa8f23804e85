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

// InstanceRepository handles workflow instance database operations. Each
// instance is stored as a single versioned row: steps, history and comments
// live in JSON columns so a transition is one storage round-trip.
type InstanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *sql.DB, logger *zap.Logger) *InstanceRepository {
	return &InstanceRepository{
		db:     db,
		logger: logger,
	}
}

const instanceColumns = `
	id, template_id, name, initiator, department, related_type, related_id,
	status, current_step, current_assignee, steps_data, history, comments,
	start_date, completed_date, due_date, version, created_at, updated_at
`

// Create inserts a new instance document.
func (r *InstanceRepository) Create(ctx context.Context, inst *entity.WorkflowInstance) error {
	stepsJSON, historyJSON, commentsJSON, err := marshalDocuments(inst)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflow_instances (
			template_id, name, initiator, department, related_type, related_id,
			status, current_step, current_assignee, steps_data, history, comments,
			start_date, completed_date, due_date, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		inst.TemplateID,
		inst.Name,
		inst.Initiator,
		inst.Department,
		inst.RelatedEntity.Type,
		inst.RelatedEntity.ID,
		string(inst.Status),
		inst.CurrentStep,
		inst.CurrentAssignee(),
		stepsJSON,
		historyJSON,
		commentsJSON,
		nullTime(inst.StartDate),
		nullTime(inst.CompletedDate),
		nullTime(inst.DueDate),
		inst.Version,
		inst.CreatedAt,
		inst.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create instance", zap.Error(err))
		return &workflow.PersistenceError{Op: "create instance", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return &workflow.PersistenceError{Op: "create instance", Err: err}
	}

	inst.ID = id
	return nil
}

// GetByID retrieves an instance by ID.
func (r *InstanceRepository) GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances WHERE id = ?`

	inst, err := scanInstance(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &workflow.NotFoundError{Kind: "instance", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get instance", zap.Int64("id", id), zap.Error(err))
		return nil, &workflow.PersistenceError{Op: "get instance", Err: err}
	}
	return inst, nil
}

// List retrieves instances matching the filter, newest first.
func (r *InstanceRepository) List(ctx context.Context, filter port.InstanceFilter, limit, offset int) ([]*entity.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances WHERE 1 = 1`
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.AssignedTo != "" {
		query += " AND current_assignee = ?"
		args = append(args, filter.AssignedTo)
	}
	if filter.Department != "" {
		query += " AND department = ?"
		args = append(args, filter.Department)
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list instances", zap.Error(err))
		return nil, &workflow.PersistenceError{Op: "list instances", Err: err}
	}
	defer rows.Close()

	var instances []*entity.WorkflowInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, &workflow.PersistenceError{Op: "list instances", Err: err}
		}
		instances = append(instances, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, &workflow.PersistenceError{Op: "list instances", Err: err}
	}
	return instances, nil
}

// Update writes the instance document back, guarded by the version it was
// read at. A lost-update race surfaces as ConcurrentModificationError; the
// caller re-reads and retries if the operation still makes sense.
func (r *InstanceRepository) Update(ctx context.Context, inst *entity.WorkflowInstance) error {
	stepsJSON, historyJSON, commentsJSON, err := marshalDocuments(inst)
	if err != nil {
		return err
	}

	query := `
		UPDATE workflow_instances
		SET name = ?, status = ?, current_step = ?, current_assignee = ?,
			steps_data = ?, history = ?, comments = ?,
			start_date = ?, completed_date = ?, due_date = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		inst.Name,
		string(inst.Status),
		inst.CurrentStep,
		inst.CurrentAssignee(),
		stepsJSON,
		historyJSON,
		commentsJSON,
		nullTime(inst.StartDate),
		nullTime(inst.CompletedDate),
		nullTime(inst.DueDate),
		time.Now(),
		inst.ID,
		inst.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update instance", zap.Int64("id", inst.ID), zap.Error(err))
		return &workflow.PersistenceError{Op: "update instance", Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &workflow.PersistenceError{Op: "update instance", Err: err}
	}
	if affected == 0 {
		// Distinguish a vanished row from a version conflict.
		var current int64
		err := r.db.QueryRowContext(ctx,
			`SELECT version FROM workflow_instances WHERE id = ?`, inst.ID).Scan(&current)
		if err == sql.ErrNoRows {
			return &workflow.NotFoundError{Kind: "instance", ID: inst.ID}
		}
		if err != nil {
			return &workflow.PersistenceError{Op: "update instance", Err: err}
		}
		r.logger.Warn("Concurrent modification detected",
			zap.Int64("id", inst.ID),
			zap.Int64("read_version", inst.Version),
			zap.Int64("current_version", current))
		return &workflow.ConcurrentModificationError{InstanceID: inst.ID, Version: inst.Version}
	}

	inst.Version++
	return nil
}

// CountNonTerminalByTemplate counts instances still running against a
// template.
func (r *InstanceRepository) CountNonTerminalByTemplate(ctx context.Context, templateID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM workflow_instances
		WHERE template_id = ? AND status NOT IN (?, ?, ?)
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, templateID,
		string(entity.StatusCompleted),
		string(entity.StatusCancelled),
		string(entity.StatusRejected),
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count instances by template", zap.Int64("template_id", templateID), zap.Error(err))
		return 0, &workflow.PersistenceError{Op: "count instances", Err: err}
	}
	return count, nil
}

func marshalDocuments(inst *entity.WorkflowInstance) (steps, history, comments string, err error) {
	stepsJSON, err := json.Marshal(inst.StepsData)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal steps data: %w", err)
	}
	historyJSON, err := json.Marshal(inst.History)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal history: %w", err)
	}
	commentsJSON, err := json.Marshal(inst.Comments)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal comments: %w", err)
	}
	return string(stepsJSON), string(historyJSON), string(commentsJSON), nil
}

func scanInstance(row rowScanner) (*entity.WorkflowInstance, error) {
	var inst entity.WorkflowInstance
	var status, assignee, stepsJSON, historyJSON, commentsJSON string
	var startDate, completedDate, dueDate sql.NullTime

	err := row.Scan(
		&inst.ID,
		&inst.TemplateID,
		&inst.Name,
		&inst.Initiator,
		&inst.Department,
		&inst.RelatedEntity.Type,
		&inst.RelatedEntity.ID,
		&status,
		&inst.CurrentStep,
		&assignee,
		&stepsJSON,
		&historyJSON,
		&commentsJSON,
		&startDate,
		&completedDate,
		&dueDate,
		&inst.Version,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.Status = entity.InstanceStatus(status)
	if err := json.Unmarshal([]byte(stepsJSON), &inst.StepsData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps data: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &inst.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if err := json.Unmarshal([]byte(commentsJSON), &inst.Comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
	}

	if startDate.Valid {
		inst.StartDate = &startDate.Time
	}
	if completedDate.Valid {
		inst.CompletedDate = &completedDate.Time
	}
	if dueDate.Valid {
		inst.DueDate = &dueDate.Time
	}

	return &inst, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
