package workflow

import (
	"fmt"
	"time"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
)

// Engine owns all step transition logic. It mutates instance snapshots in
// memory; persistence and concurrency control belong to the caller. Every
// mutation is recorded through the Recorder before the engine returns.
type Engine struct {
	rec *Recorder
	now func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the engine clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.rec = NewRecorder(now)
	}
}

// NewEngine creates a workflow engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now: time.Now,
		rec: NewRecorder(time.Now),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInstance snapshots a template into a new draft instance and records
// the creation. Templates without steps cannot be instantiated.
func (e *Engine) CreateInstance(tmpl *entity.WorkflowTemplate, name, initiator string, related entity.RelatedEntity) (*entity.WorkflowInstance, error) {
	if len(tmpl.Steps) == 0 {
		return nil, &ValidationError{Reason: fmt.Sprintf("template %d has no steps and cannot be instantiated", tmpl.ID)}
	}
	if name == "" {
		name = tmpl.Name
	}

	inst := entity.NewInstanceFromTemplate(tmpl, name, initiator, related, e.now())
	e.rec.Record(inst, entity.HistoryCreated, initiator, 0,
		fmt.Sprintf("instance created from template %d (%s)", tmpl.ID, tmpl.Name))
	return inst, nil
}

// fire runs a lifecycle transition through the state machine and applies the
// resulting status to the instance.
func (e *Engine) fire(inst *entity.WorkflowInstance, trigger Trigger, op string, expected entity.InstanceStatus) error {
	machine := NewLifecycleMachine(State(inst.Status))
	if err := machine.Fire(trigger); err != nil {
		return &InvalidStateError{Operation: op, Status: inst.Status, Expected: expected}
	}
	inst.Status = entity.InstanceStatus(machine.State())
	return nil
}

// Start transitions a draft instance to active: sets the instance start date,
// puts the first step in progress and derives its due date.
func (e *Engine) Start(inst *entity.WorkflowInstance) error {
	if err := e.fire(inst, TriggerStart, "start", entity.StatusDraft); err != nil {
		return err
	}

	first := inst.NextStep(0)
	if first == nil {
		return &CorruptInstanceError{InstanceID: inst.ID, CurrentStep: inst.CurrentStep, Reason: "instance has no steps"}
	}

	now := e.now()
	inst.StartDate = &now
	inst.CurrentStep = first.StepNumber
	e.activate(first, now)

	e.rec.Record(inst, entity.HistoryStarted, inst.Initiator, first.StepNumber,
		fmt.Sprintf("workflow started at step %d (%s)", first.StepNumber, first.Name))
	return nil
}

// Advance completes the current step and moves the instance forward. On the
// last step the instance itself completes. Repeating an advance for a step
// that already moved on is caught by the current-step lookup and the status
// guard, never by a silent double-advance.
func (e *Engine) Advance(inst *entity.WorkflowInstance, actor, comment string) error {
	if inst.Status != entity.StatusActive {
		return &InvalidStateError{Operation: "advance", Status: inst.Status, Expected: entity.StatusActive}
	}

	step := inst.Step(inst.CurrentStep)
	if step == nil {
		return &CorruptInstanceError{InstanceID: inst.ID, CurrentStep: inst.CurrentStep, Reason: "current step missing from step data"}
	}

	now := e.now()
	step.Status = entity.StepCompleted
	step.CompletedDate = &now

	e.rec.RecordStepAction(step, entity.ActionApprove, actor, comment)
	e.rec.Record(inst, entity.HistoryStepCompleted, actor, step.StepNumber,
		fmt.Sprintf("step %d (%s) completed", step.StepNumber, step.Name))
	if comment != "" {
		e.rec.RecordComment(inst, actor, comment)
	}

	return e.moveOn(inst, step, actor)
}

// Reject rejects the current step and terminates the instance. reason is
// mandatory.
func (e *Engine) Reject(inst *entity.WorkflowInstance, actor, reason string) error {
	if reason == "" {
		return &ValidationError{Reason: "reject reason is required"}
	}
	if inst.Status != entity.StatusActive {
		return &InvalidStateError{Operation: "reject", Status: inst.Status, Expected: entity.StatusActive}
	}

	step := inst.Step(inst.CurrentStep)
	if step == nil {
		return &CorruptInstanceError{InstanceID: inst.ID, CurrentStep: inst.CurrentStep, Reason: "current step missing from step data"}
	}

	now := e.now()
	step.Status = entity.StepRejected
	step.CompletedDate = &now
	e.rec.RecordStepAction(step, entity.ActionReject, actor, reason)

	if err := e.fire(inst, TriggerReject, "reject", entity.StatusActive); err != nil {
		return err
	}

	e.rec.Record(inst, entity.HistoryStepRejected, actor, step.StepNumber,
		fmt.Sprintf("step %d (%s) rejected: %s", step.StepNumber, step.Name, reason))
	e.rec.Record(inst, entity.HistoryRejected, actor, step.StepNumber, reason)
	return nil
}

// Skip marks the current step skipped and moves the instance forward. Only
// steps flagged optional can be skipped.
func (e *Engine) Skip(inst *entity.WorkflowInstance, actor, reason string) error {
	if inst.Status != entity.StatusActive {
		return &InvalidStateError{Operation: "skip", Status: inst.Status, Expected: entity.StatusActive}
	}

	step := inst.Step(inst.CurrentStep)
	if step == nil {
		return &CorruptInstanceError{InstanceID: inst.ID, CurrentStep: inst.CurrentStep, Reason: "current step missing from step data"}
	}
	if !step.IsOptional {
		return &ValidationError{Reason: fmt.Sprintf("step %d is not optional and cannot be skipped", step.StepNumber)}
	}

	now := e.now()
	step.Status = entity.StepSkipped
	step.CompletedDate = &now

	e.rec.Record(inst, entity.HistoryStepSkipped, actor, step.StepNumber,
		fmt.Sprintf("step %d (%s) skipped: %s", step.StepNumber, step.Name, reason))

	return e.moveOn(inst, step, actor)
}

// Pause suspends an active instance. Step data is not touched.
func (e *Engine) Pause(inst *entity.WorkflowInstance, actor string) error {
	if err := e.fire(inst, TriggerPause, "pause", entity.StatusActive); err != nil {
		return err
	}
	e.rec.Record(inst, entity.HistoryPaused, actor, inst.CurrentStep, "workflow paused")
	return nil
}

// Resume reactivates a paused instance.
func (e *Engine) Resume(inst *entity.WorkflowInstance, actor string) error {
	if err := e.fire(inst, TriggerResume, "resume", entity.StatusPaused); err != nil {
		return err
	}
	e.rec.Record(inst, entity.HistoryResumed, actor, inst.CurrentStep, "workflow resumed")
	return nil
}

// Cancel administratively terminates any non-terminal instance.
func (e *Engine) Cancel(inst *entity.WorkflowInstance, actor, reason string) error {
	if err := e.fire(inst, TriggerCancel, "cancel", ""); err != nil {
		return err
	}
	e.rec.Record(inst, entity.HistoryCancelled, actor, inst.CurrentStep, reason)
	return nil
}

// AddComment appends to the instance-level comment thread. Comments are
// permitted on any non-terminal instance.
func (e *Engine) AddComment(inst *entity.WorkflowInstance, author, text string) error {
	if text == "" {
		return &ValidationError{Reason: "comment text is required"}
	}
	if inst.Status.IsTerminal() {
		return &InvalidStateError{Operation: "comment", Status: inst.Status}
	}

	e.rec.RecordComment(inst, author, text)
	e.rec.Record(inst, entity.HistoryComment, author, inst.CurrentStep, text)
	return nil
}

// moveOn advances past a finished step: either activates the next step or
// completes the instance.
func (e *Engine) moveOn(inst *entity.WorkflowInstance, finished *entity.StepState, actor string) error {
	now := e.now()

	next := inst.NextStep(finished.StepNumber)
	if next == nil {
		if err := e.fire(inst, TriggerComplete, "complete", entity.StatusActive); err != nil {
			return err
		}
		inst.CompletedDate = &now
		e.rec.Record(inst, entity.HistoryCompleted, actor, finished.StepNumber, "workflow completed")
		return nil
	}

	inst.CurrentStep = next.StepNumber
	e.activate(next, now)
	e.rec.Record(inst, entity.HistoryUpdated, actor, next.StepNumber,
		fmt.Sprintf("advanced from step %d to step %d (%s)", finished.StepNumber, next.StepNumber, next.Name))
	return nil
}

// activate puts a step in progress and derives its due date from its
// duration. Due dates use calendar days; a zero duration means the step is
// due the moment it starts.
func (e *Engine) activate(step *entity.StepState, start time.Time) {
	due := start.AddDate(0, 0, step.DurationInDays)
	step.Status = entity.StepInProgress
	step.StartDate = &start
	step.DueDate = &due
}
