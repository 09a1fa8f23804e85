package workflow

import (
	"math"
	"time"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
)

// Read views over an instance snapshot. These are pure functions: they hold
// no state and produce the same result whether invoked right after a
// mutation or on a stored snapshot.

// Progress returns the percentage of steps that are completed or skipped,
// always in [0, 100].
func Progress(inst *entity.WorkflowInstance) float64 {
	total := len(inst.StepsData)
	if total == 0 {
		return 0
	}
	done := 0
	for i := range inst.StepsData {
		switch inst.StepsData[i].Status {
		case entity.StepCompleted, entity.StepSkipped:
			done++
		}
	}
	return float64(done) / float64(total) * 100
}

// TimeElapsed returns whole days since the instance started, or between start
// and completion for finished instances. Zero if the instance never started.
func TimeElapsed(inst *entity.WorkflowInstance, now time.Time) int {
	if inst.StartDate == nil {
		return 0
	}
	end := now
	if inst.CompletedDate != nil {
		end = *inst.CompletedDate
	}
	days := int(end.Sub(*inst.StartDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// TimeRemaining returns whole days until the instance due date, floored at
// zero. It returns nil when no due date is set, and zero once the instance
// reaches a terminal status.
func TimeRemaining(inst *entity.WorkflowInstance, now time.Time) *int {
	if inst.DueDate == nil {
		return nil
	}
	zero := 0
	if inst.Status.IsTerminal() {
		return &zero
	}
	days := int(math.Ceil(inst.DueDate.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

// IsOverdue reports whether a due date exists, lies in the past, and the
// instance has not reached a terminal status.
func IsOverdue(inst *entity.WorkflowInstance, now time.Time) bool {
	if inst.DueDate == nil || inst.Status.IsTerminal() {
		return false
	}
	return inst.DueDate.Before(now)
}
