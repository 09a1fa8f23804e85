package workflow

// lifecycleBuilder configures the instance lifecycle graph:
//
//	draft  --START-->  active
//	active --PAUSE-->  paused --RESUME--> active
//	active --COMPLETE--> completed
//	active --REJECT--> rejected
//	draft/active/paused --CANCEL--> cancelled
//
// completed, cancelled and rejected are terminal.
func lifecycleBuilder() StateMachineBuilder {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		Permit(TriggerStart, StateActive).
		Permit(TriggerCancel, StateCancelled)

	builder.Configure(StateActive).
		Permit(TriggerPause, StatePaused).
		Permit(TriggerComplete, StateCompleted).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerCancel, StateCancelled)

	builder.Configure(StatePaused).
		Permit(TriggerResume, StateActive).
		Permit(TriggerCancel, StateCancelled)

	return builder
}

// NewLifecycleMachine returns a state machine positioned at the given state,
// configured with the instance lifecycle graph.
func NewLifecycleMachine(initial State) StateMachine {
	return lifecycleBuilder().Build(initial)
}
