package entity

import (
	"strings"
	"testing"
	"time"
)

func validTemplate() *WorkflowTemplate {
	return &WorkflowTemplate{
		Name:     "Purchase approval",
		Category: CategoryProcurement,
		Steps: []StepDefinition{
			{
				StepNumber:        1,
				Name:              "Manager sign-off",
				AssignedRole:      RoleManager,
				RequiredApprovals: 1,
				DurationInDays:    2,
				Actions:           []StepAction{ActionApprove, ActionReject, ActionComment},
			},
			{
				StepNumber:        2,
				Name:              "Finance review",
				AssignedRole:      RoleSpecificUser,
				AssignedUser:      "u-finance",
				RequiredApprovals: 1,
				DurationInDays:    3,
				Actions:           []StepAction{ActionApprove, ActionReject},
			},
		},
	}
}

func TestWorkflowTemplate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkflowTemplate)
		wantErr string
	}{
		{"valid", func(tmpl *WorkflowTemplate) {}, ""},
		{"name too short", func(tmpl *WorkflowTemplate) { tmpl.Name = "ab" }, "3-100"},
		{"name too long", func(tmpl *WorkflowTemplate) { tmpl.Name = strings.Repeat("x", 101) }, "3-100"},
		{"description too long", func(tmpl *WorkflowTemplate) { tmpl.Description = strings.Repeat("x", 501) }, "500"},
		{"invalid category", func(tmpl *WorkflowTemplate) { tmpl.Category = "shipping" }, "category"},
		{"zero steps", func(tmpl *WorkflowTemplate) { tmpl.Steps = nil }, "at least one step"},
		{"duplicate step numbers", func(tmpl *WorkflowTemplate) { tmpl.Steps[1].StepNumber = 1 }, "duplicate step number"},
		{"non-positive step number", func(tmpl *WorkflowTemplate) { tmpl.Steps[0].StepNumber = 0 }, "positive"},
		{"missing step name", func(tmpl *WorkflowTemplate) { tmpl.Steps[0].Name = "" }, "name is required"},
		{"invalid role", func(tmpl *WorkflowTemplate) { tmpl.Steps[0].AssignedRole = "intern" }, "role"},
		{"specific user without assignee", func(tmpl *WorkflowTemplate) { tmpl.Steps[1].AssignedUser = "" }, "assigned user is required"},
		{"zero required approvals", func(tmpl *WorkflowTemplate) { tmpl.Steps[0].RequiredApprovals = 0 }, "at least 1"},
		{"negative duration", func(tmpl *WorkflowTemplate) { tmpl.Steps[0].DurationInDays = -1 }, "negative"},
		{"invalid action", func(tmpl *WorkflowTemplate) { tmpl.Steps[0].Actions = []StepAction{"escalate"} }, "invalid action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := validTemplate()
			tt.mutate(tmpl)

			err := tmpl.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWorkflowTemplate_OrderedSteps(t *testing.T) {
	tmpl := validTemplate()
	tmpl.Steps[0].StepNumber = 5
	tmpl.Steps[1].StepNumber = 2

	ordered := tmpl.OrderedSteps()
	if ordered[0].StepNumber != 2 || ordered[1].StepNumber != 5 {
		t.Errorf("OrderedSteps() not sorted: %v, %v", ordered[0].StepNumber, ordered[1].StepNumber)
	}
	// Original slice must be untouched
	if tmpl.Steps[0].StepNumber != 5 {
		t.Error("OrderedSteps() mutated the template")
	}
}

func TestInstanceStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   InstanceStatus
		expected bool
	}{
		{StatusDraft, false},
		{StatusActive, false},
		{StatusPaused, false},
		{StatusCompleted, true},
		{StatusCancelled, true},
		{StatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewInstanceFromTemplate(t *testing.T) {
	tmpl := validTemplate()
	tmpl.ID = 7
	tmpl.Department = "Operations"

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	inst := NewInstanceFromTemplate(tmpl, "Laptop purchase", "u-init", RelatedEntity{Type: "task", ID: "t-9"}, now)

	if inst.Status != StatusDraft {
		t.Errorf("new instance status = %s, want draft", inst.Status)
	}
	if inst.CurrentStep != 0 {
		t.Errorf("new instance current step = %d, want 0", inst.CurrentStep)
	}
	if len(inst.StepsData) != 2 {
		t.Fatalf("steps data length = %d, want 2", len(inst.StepsData))
	}
	for _, step := range inst.StepsData {
		if step.Status != StepPending {
			t.Errorf("step %d status = %s, want pending", step.StepNumber, step.Status)
		}
	}
	if inst.StepsData[1].AssignedTo != "u-finance" {
		t.Errorf("step 2 assignee = %q, want u-finance", inst.StepsData[1].AssignedTo)
	}

	// Snapshot must be deep: template edits cannot reach the instance
	tmpl.Steps[0].Name = "changed"
	tmpl.Steps[0].Actions[0] = ActionDelegate
	if inst.StepsData[0].Name == "changed" {
		t.Error("instance step shares name with template after snapshot")
	}
	if inst.StepsData[0].AllowedActions[0] == ActionDelegate {
		t.Error("instance step shares actions slice with template after snapshot")
	}
}

func TestWorkflowInstance_StepLookup(t *testing.T) {
	inst := NewInstanceFromTemplate(validTemplate(), "x", "u", RelatedEntity{}, time.Now())

	if step := inst.Step(1); step == nil || step.StepNumber != 1 {
		t.Fatal("Step(1) did not resolve")
	}
	if step := inst.Step(99); step != nil {
		t.Error("Step(99) should be nil")
	}
	if next := inst.NextStep(1); next == nil || next.StepNumber != 2 {
		t.Fatal("NextStep(1) did not resolve step 2")
	}
	if next := inst.NextStep(2); next != nil {
		t.Error("NextStep(2) should be nil after the last step")
	}
}
