package entity

// InstanceStatus is the lifecycle status of a workflow instance.
type InstanceStatus string

const (
	StatusDraft     InstanceStatus = "draft"
	StatusActive    InstanceStatus = "active"
	StatusPaused    InstanceStatus = "paused"
	StatusCompleted InstanceStatus = "completed"
	StatusCancelled InstanceStatus = "cancelled"
	StatusRejected  InstanceStatus = "rejected"
)

var terminalStatuses = map[InstanceStatus]bool{
	StatusCompleted: true,
	StatusCancelled: true,
	StatusRejected:  true,
}

// IsTerminal returns true if no further mutation of the instance is permitted.
func (s InstanceStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status.
func (s InstanceStatus) String() string {
	return string(s)
}

// StepStatus is the status of a single step within an instance.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
	StepRejected   StepStatus = "rejected"
)

// TemplateCategory classifies the business process a template drives.
type TemplateCategory string

const (
	CategoryApproval    TemplateCategory = "approval"
	CategoryOnboarding  TemplateCategory = "onboarding"
	CategoryOffboarding TemplateCategory = "offboarding"
	CategoryProcurement TemplateCategory = "procurement"
	CategoryReview      TemplateCategory = "review"
	CategoryCustom      TemplateCategory = "custom"
)

var validCategories = map[TemplateCategory]bool{
	CategoryApproval:    true,
	CategoryOnboarding:  true,
	CategoryOffboarding: true,
	CategoryProcurement: true,
	CategoryReview:      true,
	CategoryCustom:      true,
}

// IsValid returns true if the category is one of the defined constants.
func (c TemplateCategory) IsValid() bool {
	return validCategories[c]
}

// AssignedRole identifies who is expected to act on a step.
type AssignedRole string

const (
	RoleAdmin          AssignedRole = "admin"
	RoleManager        AssignedRole = "manager"
	RoleEmployee       AssignedRole = "employee"
	RoleDepartmentHead AssignedRole = "department_head"
	RoleSpecificUser   AssignedRole = "specific_user"
)

var validRoles = map[AssignedRole]bool{
	RoleAdmin:          true,
	RoleManager:        true,
	RoleEmployee:       true,
	RoleDepartmentHead: true,
	RoleSpecificUser:   true,
}

// IsValid returns true if the role is one of the defined constants.
func (r AssignedRole) IsValid() bool {
	return validRoles[r]
}

// StepAction is an operation an actor may perform on a step.
type StepAction string

const (
	ActionApprove        StepAction = "approve"
	ActionReject         StepAction = "reject"
	ActionRequestChanges StepAction = "request_changes"
	ActionDelegate       StepAction = "delegate"
	ActionComment        StepAction = "comment"
)

var validStepActions = map[StepAction]bool{
	ActionApprove:        true,
	ActionReject:         true,
	ActionRequestChanges: true,
	ActionDelegate:       true,
	ActionComment:        true,
}

// IsValid returns true if the action is one of the defined constants.
func (a StepAction) IsValid() bool {
	return validStepActions[a]
}

// HistoryAction is the kind of an instance-level audit entry.
type HistoryAction string

const (
	HistoryCreated       HistoryAction = "created"
	HistoryStarted       HistoryAction = "started"
	HistoryUpdated       HistoryAction = "updated"
	HistoryStepCompleted HistoryAction = "step_completed"
	HistoryStepSkipped   HistoryAction = "step_skipped"
	HistoryStepRejected  HistoryAction = "step_rejected"
	HistoryCompleted     HistoryAction = "completed"
	HistoryRejected      HistoryAction = "rejected"
	HistoryCancelled     HistoryAction = "cancelled"
	HistoryPaused        HistoryAction = "paused"
	HistoryResumed       HistoryAction = "resumed"
	HistoryComment       HistoryAction = "comment"
)
