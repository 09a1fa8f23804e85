// Package report renders workflow instance audit trails to xlsx workbooks,
// the dashboard's export format.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
)

const (
	sheetSummary = "Summary"
	sheetSteps   = "Steps"
	sheetHistory = "History"

	dateFormat = "2006-01-02 15:04"
)

// AuditExporter builds xlsx audit reports from instance snapshots. The
// exporter reads only; it never mutates the instance.
type AuditExporter struct {
	logger *zap.Logger
}

// NewAuditExporter creates a new audit exporter.
func NewAuditExporter(logger *zap.Logger) *AuditExporter {
	return &AuditExporter{logger: logger}
}

// Export renders the instance and its full audit trail into a workbook.
// Callers own closing the returned file.
func (e *AuditExporter) Export(inst *entity.WorkflowInstance) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSteps); err != nil {
		return nil, fmt.Errorf("failed to create steps sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetHistory); err != nil {
		return nil, fmt.Errorf("failed to create history sheet: %w", err)
	}

	now := time.Now()
	e.fillSummary(f, inst, now)
	e.fillSteps(f, inst)
	e.fillHistory(f, inst)

	e.logger.Info("Audit report exported",
		zap.Int64("instance_id", inst.ID),
		zap.Int("history_entries", len(inst.History)))

	return f, nil
}

func (e *AuditExporter) fillSummary(f *excelize.File, inst *entity.WorkflowInstance, now time.Time) {
	rows := [][2]string{
		{"Instance ID", fmt.Sprintf("%d", inst.ID)},
		{"Name", inst.Name},
		{"Template ID", fmt.Sprintf("%d", inst.TemplateID)},
		{"Initiator", inst.Initiator},
		{"Department", inst.Department},
		{"Status", string(inst.Status)},
		{"Current step", fmt.Sprintf("%d", inst.CurrentStep)},
		{"Progress", fmt.Sprintf("%.0f%%", workflow.Progress(inst))},
		{"Days elapsed", fmt.Sprintf("%d", workflow.TimeElapsed(inst, now))},
		{"Overdue", fmt.Sprintf("%t", workflow.IsOverdue(inst, now))},
		{"Created", inst.CreatedAt.Format(dateFormat)},
	}
	if inst.StartDate != nil {
		rows = append(rows, [2]string{"Started", inst.StartDate.Format(dateFormat)})
	}
	if inst.CompletedDate != nil {
		rows = append(rows, [2]string{"Completed", inst.CompletedDate.Format(dateFormat)})
	}
	if remaining := workflow.TimeRemaining(inst, now); remaining != nil {
		rows = append(rows, [2]string{"Days remaining", fmt.Sprintf("%d", *remaining)})
	}

	for i, row := range rows {
		e.setCell(f, sheetSummary, fmt.Sprintf("A%d", i+1), row[0])
		e.setCell(f, sheetSummary, fmt.Sprintf("B%d", i+1), row[1])
	}
}

func (e *AuditExporter) fillSteps(f *excelize.File, inst *entity.WorkflowInstance) {
	headers := []string{"Step", "Name", "Status", "Assigned to", "Started", "Due", "Completed", "Actions"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		e.setCell(f, sheetSteps, cell, h)
	}

	for row, step := range inst.StepsData {
		values := []string{
			fmt.Sprintf("%d", step.StepNumber),
			step.Name,
			string(step.Status),
			step.AssignedTo,
			formatDate(step.StartDate),
			formatDate(step.DueDate),
			formatDate(step.CompletedDate),
			fmt.Sprintf("%d", len(step.Actions)),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			e.setCell(f, sheetSteps, cell, v)
		}
	}
}

func (e *AuditExporter) fillHistory(f *excelize.File, inst *entity.WorkflowInstance) {
	headers := []string{"Timestamp", "Action", "Actor", "Step", "Details"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		e.setCell(f, sheetHistory, cell, h)
	}

	for row, entry := range inst.History {
		values := []string{
			entry.Timestamp.Format(dateFormat),
			string(entry.Action),
			entry.Actor,
			fmt.Sprintf("%d", entry.StepNumber),
			entry.Details,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			e.setCell(f, sheetHistory, cell, v)
		}
	}
}

// setCell sets a cell value, logging rather than failing on errors
func (e *AuditExporter) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}
