package workflow

// Trigger represents an event that can cause a lifecycle transition.
type Trigger string

const (
	TriggerStart    Trigger = "START"
	TriggerComplete Trigger = "COMPLETE"
	TriggerReject   Trigger = "REJECT"
	TriggerPause    Trigger = "PAUSE"
	TriggerResume   Trigger = "RESUME"
	TriggerCancel   Trigger = "CANCEL"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
