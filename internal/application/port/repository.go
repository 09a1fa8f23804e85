// Package port defines the interfaces the application layer consumes.
// Concrete implementations live in internal/repository and
// internal/notification.
package port

import (
	"context"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
)

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	Category   entity.TemplateCategory
	Department string
	IsActive   *bool
}

// InstanceFilter narrows instance listings.
type InstanceFilter struct {
	Status     entity.InstanceStatus
	AssignedTo string
	Department string
}

// TemplateRepository persists workflow templates.
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *entity.WorkflowTemplate) error
	GetByID(ctx context.Context, id int64) (*entity.WorkflowTemplate, error)
	List(ctx context.Context, filter TemplateFilter, limit, offset int) ([]*entity.WorkflowTemplate, error)
	// UpdateMetadata updates name, description and active flag only. Step
	// definitions are immutable once stored; structural changes create a
	// new template.
	UpdateMetadata(ctx context.Context, tmpl *entity.WorkflowTemplate) error
	Delete(ctx context.Context, id int64) error
}

// InstanceRepository persists workflow instances as versioned documents.
type InstanceRepository interface {
	Create(ctx context.Context, inst *entity.WorkflowInstance) error
	GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error)
	List(ctx context.Context, filter InstanceFilter, limit, offset int) ([]*entity.WorkflowInstance, error)
	// Update writes the instance back, checking the version it was read at.
	// A concurrent writer surfaces as ConcurrentModificationError.
	Update(ctx context.Context, inst *entity.WorkflowInstance) error
	// CountNonTerminalByTemplate counts live instances referencing a
	// template; used to refuse template deletion.
	CountNonTerminalByTemplate(ctx context.Context, templateID int64) (int, error)
}
