package entity

import (
	"fmt"
	"sort"
	"time"
)

// StepDefinition is one ordered stage in a workflow template.
type StepDefinition struct {
	StepNumber         int          `json:"step_number"`
	Name               string       `json:"name"`
	Description        string       `json:"description,omitempty"`
	AssignedRole       AssignedRole `json:"assigned_role"`
	AssignedUser       string       `json:"assigned_user,omitempty"`
	AssignedDepartment string       `json:"assigned_department,omitempty"`
	// RequiredApprovals is recorded on step snapshots but advancement is
	// single-action; the field is reserved for a future fan-in policy.
	RequiredApprovals int          `json:"required_approvals"`
	DurationInDays    int          `json:"duration_in_days"`
	IsOptional        bool         `json:"is_optional"`
	Actions           []StepAction `json:"actions"`
}

// WorkflowTemplate is a reusable process definition.
type WorkflowTemplate struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Category    TemplateCategory `json:"category"`
	Department  string           `json:"department,omitempty"`
	Steps       []StepDefinition `json:"steps"`
	IsActive    bool             `json:"is_active"`
	CreatedBy   string           `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Validate checks the template definition. Step numbers must be unique and
// positive; a template with zero steps cannot be instantiated.
func (t *WorkflowTemplate) Validate() error {
	if len(t.Name) < 3 || len(t.Name) > 100 {
		return fmt.Errorf("template name must be 3-100 characters, got %d", len(t.Name))
	}
	if len(t.Description) > 500 {
		return fmt.Errorf("template description must be at most 500 characters, got %d", len(t.Description))
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("invalid template category: %s", t.Category)
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("template must define at least one step")
	}

	seen := make(map[int]bool, len(t.Steps))
	for i := range t.Steps {
		step := &t.Steps[i]
		if step.StepNumber <= 0 {
			return fmt.Errorf("step %q: step number must be positive, got %d", step.Name, step.StepNumber)
		}
		if seen[step.StepNumber] {
			return fmt.Errorf("duplicate step number: %d", step.StepNumber)
		}
		seen[step.StepNumber] = true

		if step.Name == "" {
			return fmt.Errorf("step %d: name is required", step.StepNumber)
		}
		if !step.AssignedRole.IsValid() {
			return fmt.Errorf("step %d: invalid assigned role: %s", step.StepNumber, step.AssignedRole)
		}
		if step.AssignedRole == RoleSpecificUser && step.AssignedUser == "" {
			return fmt.Errorf("step %d: assigned user is required for role %s", step.StepNumber, RoleSpecificUser)
		}
		if step.RequiredApprovals < 1 {
			return fmt.Errorf("step %d: required approvals must be at least 1, got %d", step.StepNumber, step.RequiredApprovals)
		}
		if step.DurationInDays < 0 {
			return fmt.Errorf("step %d: duration in days cannot be negative, got %d", step.StepNumber, step.DurationInDays)
		}
		for _, a := range step.Actions {
			if !a.IsValid() {
				return fmt.Errorf("step %d: invalid action: %s", step.StepNumber, a)
			}
		}
	}

	return nil
}

// OrderedSteps returns the step definitions sorted by step number. The
// template's own slice is left untouched.
func (t *WorkflowTemplate) OrderedSteps() []StepDefinition {
	steps := make([]StepDefinition, len(t.Steps))
	copy(steps, t.Steps)
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].StepNumber < steps[j].StepNumber
	})
	return steps
}
