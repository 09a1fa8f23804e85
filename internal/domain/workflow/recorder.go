package workflow

import (
	"time"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
)

// Recorder appends immutable audit entries to an instance. Entries are never
// edited or removed; validation happens before recording, so recording itself
// cannot fail.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a recorder using the given clock.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Record appends an instance-level history entry with a server-assigned
// timestamp. stepNumber is 0 for entries not tied to a step.
func (r *Recorder) Record(inst *entity.WorkflowInstance, action entity.HistoryAction, actor string, stepNumber int, details string) {
	inst.History = append(inst.History, entity.HistoryEntry{
		Action:     action,
		Actor:      actor,
		Timestamp:  r.now(),
		StepNumber: stepNumber,
		Details:    details,
	})
}

// RecordStepAction appends an action entry to the step's own log.
func (r *Recorder) RecordStepAction(step *entity.StepState, action entity.StepAction, actor, comment string) {
	step.Actions = append(step.Actions, entity.StepActionRecord{
		Action:    action,
		Actor:     actor,
		Timestamp: r.now(),
		Comment:   comment,
	})
}

// RecordComment appends to the instance-level comment thread.
func (r *Recorder) RecordComment(inst *entity.WorkflowInstance, author, text string) {
	inst.Comments = append(inst.Comments, entity.Comment{
		Author:    author,
		Text:      text,
		Timestamp: r.now(),
	})
}
