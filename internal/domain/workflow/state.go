package workflow

import "github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"

// State represents an instance status in the workflow lifecycle.
type State string

const (
	StateDraft     = State(entity.StatusDraft)
	StateActive    = State(entity.StatusActive)
	StatePaused    = State(entity.StatusPaused)
	StateCompleted = State(entity.StatusCompleted)
	StateCancelled = State(entity.StatusCancelled)
	StateRejected  = State(entity.StatusRejected)
)

var validStates = map[State]bool{
	StateDraft:     true,
	StateActive:    true,
	StatePaused:    true,
	StateCompleted: true,
	StateCancelled: true,
	StateRejected:  true,
}

// IsTerminal returns true if the state permits no further transitions.
func (s State) IsTerminal() bool {
	return entity.InstanceStatus(s).IsTerminal()
}

// IsValid returns true if the state is a valid lifecycle state.
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
