package port

import (
	"context"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
)

// StepChangedFact is handed to the notifier after each transition. The engine
// emits facts only; delivery belongs to an external notification service.
type StepChangedFact struct {
	InstanceID int64                `json:"instance_id"`
	StepNumber int                  `json:"step_number"`
	EventKind  entity.HistoryAction `json:"event_kind"`
}

// Notifier consumes step-changed facts, fire-and-forget.
type Notifier interface {
	StepChanged(ctx context.Context, fact StepChangedFact)
}
