package service

import (
	"context"
	"errors"
	"time"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/port"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// maxPersistAttempts bounds retries of instance writes that fail in the
// storage layer. Version conflicts are never retried here: the conflicting
// writer may have consumed the step, so the caller must re-read first.
const maxPersistAttempts = 3

// WorkflowService exposes the engine's command surface. Every mutating call
// loads the instance, runs the transition in memory, writes the document back
// under a version check, and emits a step-changed fact.
type WorkflowService interface {
	CreateInstance(ctx context.Context, templateID int64, name, initiator string, related entity.RelatedEntity, dueDate *time.Time) (*entity.WorkflowInstance, error)
	StartInstance(ctx context.Context, id int64) (*entity.WorkflowInstance, error)
	AdvanceStep(ctx context.Context, id int64, actor, comment string) (*entity.WorkflowInstance, error)
	RejectStep(ctx context.Context, id int64, actor, reason string) (*entity.WorkflowInstance, error)
	SkipStep(ctx context.Context, id int64, actor, reason string) (*entity.WorkflowInstance, error)
	PauseInstance(ctx context.Context, id int64, actor string) (*entity.WorkflowInstance, error)
	ResumeInstance(ctx context.Context, id int64, actor string) (*entity.WorkflowInstance, error)
	CancelInstance(ctx context.Context, id int64, actor, reason string) (*entity.WorkflowInstance, error)
	AddComment(ctx context.Context, id int64, author, text string) (*entity.WorkflowInstance, error)
	GetInstance(ctx context.Context, id int64) (*entity.WorkflowInstance, error)
	GetHistory(ctx context.Context, id int64) ([]entity.HistoryEntry, error)
	ListInstances(ctx context.Context, filter port.InstanceFilter, limit, offset int) ([]*entity.WorkflowInstance, error)
}

type workflowServiceImpl struct {
	templateRepo port.TemplateRepository
	instanceRepo port.InstanceRepository
	engine       *workflow.Engine
	notifier     port.Notifier
	logger       Logger
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(
	templateRepo port.TemplateRepository,
	instanceRepo port.InstanceRepository,
	engine *workflow.Engine,
	notifier port.Notifier,
	logger Logger,
) WorkflowService {
	return &workflowServiceImpl{
		templateRepo: templateRepo,
		instanceRepo: instanceRepo,
		engine:       engine,
		notifier:     notifier,
		logger:       logger,
	}
}

// CreateInstance snapshots a template into a new draft instance.
func (s *workflowServiceImpl) CreateInstance(ctx context.Context, templateID int64, name, initiator string, related entity.RelatedEntity, dueDate *time.Time) (*entity.WorkflowInstance, error) {
	if initiator == "" {
		return nil, &workflow.ValidationError{Reason: "initiator is required"}
	}

	tmpl, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsActive {
		return nil, &workflow.ValidationError{Reason: "template is inactive"}
	}

	inst, err := s.engine.CreateInstance(tmpl, name, initiator, related)
	if err != nil {
		return nil, err
	}
	inst.DueDate = dueDate

	if err := s.instanceRepo.Create(ctx, inst); err != nil {
		s.logger.Error("Failed to persist new instance", "error", err, "template_id", templateID)
		return nil, err
	}

	s.logger.Info("Instance created", "id", inst.ID, "template_id", templateID, "initiator", initiator)
	s.emitFact(ctx, inst)
	return inst, nil
}

func (s *workflowServiceImpl) StartInstance(ctx context.Context, id int64) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.Start(inst)
	})
}

func (s *workflowServiceImpl) AdvanceStep(ctx context.Context, id int64, actor, comment string) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.Advance(inst, actor, comment)
	})
}

func (s *workflowServiceImpl) RejectStep(ctx context.Context, id int64, actor, reason string) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.Reject(inst, actor, reason)
	})
}

func (s *workflowServiceImpl) SkipStep(ctx context.Context, id int64, actor, reason string) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.Skip(inst, actor, reason)
	})
}

func (s *workflowServiceImpl) PauseInstance(ctx context.Context, id int64, actor string) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.Pause(inst, actor)
	})
}

func (s *workflowServiceImpl) ResumeInstance(ctx context.Context, id int64, actor string) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.Resume(inst, actor)
	})
}

func (s *workflowServiceImpl) CancelInstance(ctx context.Context, id int64, actor, reason string) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.Cancel(inst, actor, reason)
	})
}

func (s *workflowServiceImpl) AddComment(ctx context.Context, id int64, author, text string) (*entity.WorkflowInstance, error) {
	return s.transition(ctx, id, func(inst *entity.WorkflowInstance) error {
		return s.engine.AddComment(inst, author, text)
	})
}

// GetInstance retrieves an instance by ID.
func (s *workflowServiceImpl) GetInstance(ctx context.Context, id int64) (*entity.WorkflowInstance, error) {
	return s.instanceRepo.GetByID(ctx, id)
}

// GetHistory returns the instance's audit trail.
func (s *workflowServiceImpl) GetHistory(ctx context.Context, id int64) ([]entity.HistoryEntry, error) {
	inst, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return inst.History, nil
}

// ListInstances retrieves instances matching the filter.
func (s *workflowServiceImpl) ListInstances(ctx context.Context, filter port.InstanceFilter, limit, offset int) ([]*entity.WorkflowInstance, error) {
	return s.instanceRepo.List(ctx, filter, limit, offset)
}

// transition runs one engine operation against a fresh read of the instance
// and writes the result back. The transition either fully succeeds (state and
// history updated in one write) or the instance is left untouched.
func (s *workflowServiceImpl) transition(ctx context.Context, id int64, op func(*entity.WorkflowInstance) error) (*entity.WorkflowInstance, error) {
	inst, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := op(inst); err != nil {
		var corrupt *workflow.CorruptInstanceError
		if errors.As(err, &corrupt) {
			s.logger.Error("Corrupt instance detected",
				"instance_id", corrupt.InstanceID,
				"current_step", corrupt.CurrentStep,
				"reason", corrupt.Reason)
		}
		return nil, err
	}

	inst.UpdatedAt = time.Now()
	if err := s.save(ctx, inst); err != nil {
		return nil, err
	}

	s.emitFact(ctx, inst)
	return inst, nil
}

// save writes the instance with a bounded retry on storage failures.
func (s *workflowServiceImpl) save(ctx context.Context, inst *entity.WorkflowInstance) error {
	var err error
	for attempt := 1; attempt <= maxPersistAttempts; attempt++ {
		err = s.instanceRepo.Update(ctx, inst)
		var persist *workflow.PersistenceError
		if err == nil || !errors.As(err, &persist) {
			return err
		}
		s.logger.Error("Instance write failed",
			"instance_id", inst.ID, "attempt", attempt, "error", err)
	}
	return err
}

// emitFact hands the latest transition to the notifier, fire-and-forget.
func (s *workflowServiceImpl) emitFact(ctx context.Context, inst *entity.WorkflowInstance) {
	if s.notifier == nil || len(inst.History) == 0 {
		return
	}
	last := inst.History[len(inst.History)-1]
	s.notifier.StepChanged(ctx, port.StepChangedFact{
		InstanceID: inst.ID,
		StepNumber: last.StepNumber,
		EventKind:  last.Action,
	})
}
