package entity

import "time"

// StepActionRecord is one recorded actor operation on a step. The per-step
// action log is append-only.
type StepActionRecord struct {
	Action      StepAction `json:"action"`
	Actor       string     `json:"actor"`
	Timestamp   time.Time  `json:"timestamp"`
	Comment     string     `json:"comment,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
}

// StepState is the per-instance snapshot of a template step, carrying its own
// execution state. Step records are owned by their instance; all mutation goes
// through the state machine.
type StepState struct {
	StepNumber         int                `json:"step_number"`
	Name               string             `json:"name"`
	Description        string             `json:"description,omitempty"`
	Status             StepStatus         `json:"status"`
	AssignedRole       AssignedRole       `json:"assigned_role"`
	AssignedTo         string             `json:"assigned_to,omitempty"`
	AssignedDepartment string             `json:"assigned_department,omitempty"`
	RequiredApprovals  int                `json:"required_approvals"`
	DurationInDays     int                `json:"duration_in_days"`
	IsOptional         bool               `json:"is_optional"`
	AllowedActions     []StepAction       `json:"allowed_actions"`
	StartDate          *time.Time         `json:"start_date,omitempty"`
	CompletedDate      *time.Time         `json:"completed_date,omitempty"`
	DueDate            *time.Time         `json:"due_date,omitempty"`
	Actions            []StepActionRecord `json:"actions"`
	FormData           map[string]any     `json:"form_data,omitempty"`
}

// HistoryEntry is an instance-level audit record. History is append-only and
// never edited or removed.
type HistoryEntry struct {
	Action     HistoryAction `json:"action"`
	Actor      string        `json:"actor"`
	Timestamp  time.Time     `json:"timestamp"`
	StepNumber int           `json:"step_number,omitempty"`
	Details    string        `json:"details,omitempty"`
}

// Comment is an entry in the instance-level comment thread, separate from
// step actions.
type Comment struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RelatedEntity links an instance to the dashboard record it was raised for.
type RelatedEntity struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// WorkflowInstance is one execution of a template.
type WorkflowInstance struct {
	ID            int64          `json:"id"`
	TemplateID    int64          `json:"template_id"`
	Name          string         `json:"name"`
	Initiator     string         `json:"initiator"`
	Department    string         `json:"department,omitempty"`
	RelatedEntity RelatedEntity  `json:"related_entity,omitempty"`
	Status        InstanceStatus `json:"status"`
	CurrentStep   int            `json:"current_step"`
	StepsData     []StepState    `json:"steps_data"`
	History       []HistoryEntry `json:"history"`
	Comments      []Comment      `json:"comments"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	CompletedDate *time.Time     `json:"completed_date,omitempty"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	// Version is bumped on every write and checked to detect concurrent
	// modification of the instance document.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Step returns the step state with the given step number, or nil if the
// instance carries no such step.
func (w *WorkflowInstance) Step(stepNumber int) *StepState {
	for i := range w.StepsData {
		if w.StepsData[i].StepNumber == stepNumber {
			return &w.StepsData[i]
		}
	}
	return nil
}

// NextStep returns the step state with the smallest step number greater than
// the given one, or nil if the given step is the last.
func (w *WorkflowInstance) NextStep(after int) *StepState {
	var next *StepState
	for i := range w.StepsData {
		s := &w.StepsData[i]
		if s.StepNumber <= after {
			continue
		}
		if next == nil || s.StepNumber < next.StepNumber {
			next = s
		}
	}
	return next
}

// CurrentAssignee returns the resolved assignee of the step currently in
// progress, or an empty string.
func (w *WorkflowInstance) CurrentAssignee() string {
	if step := w.Step(w.CurrentStep); step != nil {
		return step.AssignedTo
	}
	return ""
}

// NewInstanceFromTemplate snapshots a template's step definitions into a new
// draft instance. The copy is deep: later template edits do not reach the
// instance.
func NewInstanceFromTemplate(tmpl *WorkflowTemplate, name, initiator string, related RelatedEntity, now time.Time) *WorkflowInstance {
	steps := tmpl.OrderedSteps()
	stepsData := make([]StepState, 0, len(steps))
	for _, def := range steps {
		allowed := make([]StepAction, len(def.Actions))
		copy(allowed, def.Actions)

		stepsData = append(stepsData, StepState{
			StepNumber:         def.StepNumber,
			Name:               def.Name,
			Description:        def.Description,
			Status:             StepPending,
			AssignedRole:       def.AssignedRole,
			AssignedTo:         def.AssignedUser,
			AssignedDepartment: def.AssignedDepartment,
			RequiredApprovals:  def.RequiredApprovals,
			DurationInDays:     def.DurationInDays,
			IsOptional:         def.IsOptional,
			AllowedActions:     allowed,
			Actions:            []StepActionRecord{},
		})
	}

	return &WorkflowInstance{
		TemplateID:    tmpl.ID,
		Name:          name,
		Initiator:     initiator,
		Department:    tmpl.Department,
		RelatedEntity: related,
		Status:        StatusDraft,
		CurrentStep:   0,
		StepsData:     stepsData,
		History:       []HistoryEntry{},
		Comments:      []Comment{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
