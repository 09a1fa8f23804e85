package service

import (
	"context"
	"fmt"
	"time"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/port"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
)

// TemplateService manages workflow templates. Templates are structurally
// immutable once stored: only name, description and the active flag can
// change, and deletion is refused while live instances reference them.
type TemplateService interface {
	Create(ctx context.Context, tmpl *entity.WorkflowTemplate) (*entity.WorkflowTemplate, error)
	Get(ctx context.Context, id int64) (*entity.WorkflowTemplate, error)
	List(ctx context.Context, filter port.TemplateFilter, limit, offset int) ([]*entity.WorkflowTemplate, error)
	UpdateMetadata(ctx context.Context, id int64, update TemplateMetadataUpdate) (*entity.WorkflowTemplate, error)
	Delete(ctx context.Context, id int64) error
}

// TemplateMetadataUpdate carries the mutable template fields; nil means keep.
type TemplateMetadataUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

type templateServiceImpl struct {
	templateRepo port.TemplateRepository
	instanceRepo port.InstanceRepository
	logger       Logger
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(
	templateRepo port.TemplateRepository,
	instanceRepo port.InstanceRepository,
	logger Logger,
) TemplateService {
	return &templateServiceImpl{
		templateRepo: templateRepo,
		instanceRepo: instanceRepo,
		logger:       logger,
	}
}

// Create validates and stores a new template.
func (s *templateServiceImpl) Create(ctx context.Context, tmpl *entity.WorkflowTemplate) (*entity.WorkflowTemplate, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, &workflow.ValidationError{Reason: err.Error()}
	}

	now := time.Now()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	if err := s.templateRepo.Create(ctx, tmpl); err != nil {
		s.logger.Error("Failed to create template", "error", err, "name", tmpl.Name)
		return nil, err
	}

	s.logger.Info("Template created", "id", tmpl.ID, "name", tmpl.Name, "category", tmpl.Category)
	return tmpl, nil
}

// Get retrieves a template by ID.
func (s *templateServiceImpl) Get(ctx context.Context, id int64) (*entity.WorkflowTemplate, error) {
	return s.templateRepo.GetByID(ctx, id)
}

// List retrieves templates matching the filter.
func (s *templateServiceImpl) List(ctx context.Context, filter port.TemplateFilter, limit, offset int) ([]*entity.WorkflowTemplate, error) {
	return s.templateRepo.List(ctx, filter, limit, offset)
}

// UpdateMetadata applies a metadata-only update. Step definitions cannot be
// changed; a different process needs a new template.
func (s *templateServiceImpl) UpdateMetadata(ctx context.Context, id int64, update TemplateMetadataUpdate) (*entity.WorkflowTemplate, error) {
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		tmpl.Name = *update.Name
	}
	if update.Description != nil {
		tmpl.Description = *update.Description
	}
	if update.IsActive != nil {
		tmpl.IsActive = *update.IsActive
	}

	if err := tmpl.Validate(); err != nil {
		return nil, &workflow.ValidationError{Reason: err.Error()}
	}

	if err := s.templateRepo.UpdateMetadata(ctx, tmpl); err != nil {
		s.logger.Error("Failed to update template", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Template updated", "id", id)
	return tmpl, nil
}

// Delete removes a template, refusing while any non-terminal instance still
// references it.
func (s *templateServiceImpl) Delete(ctx context.Context, id int64) error {
	count, err := s.instanceRepo.CountNonTerminalByTemplate(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &workflow.ValidationError{
			Reason: fmt.Sprintf("template %d is referenced by %d active instance(s)", id, count),
		}
	}

	if err := s.templateRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete template", "error", err, "id", id)
		return err
	}

	s.logger.Info("Template deleted", "id", id)
	return nil
}
