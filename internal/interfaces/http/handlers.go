package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/port"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/service"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/report"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflowService service.WorkflowService
	templateService service.TemplateService
	exporter        *report.AuditExporter
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflowService service.WorkflowService,
	templateService service.TemplateService,
	exporter *report.AuditExporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflowService: workflowService,
		templateService: templateService,
		exporter:        exporter,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// InstanceView decorates an instance with its computed read views.
type InstanceView struct {
	*entity.WorkflowInstance
	Progress      float64 `json:"progress"`
	TimeElapsed   int     `json:"time_elapsed"`
	TimeRemaining *int    `json:"time_remaining"`
	IsOverdue     bool    `json:"is_overdue"`
}

func toInstanceView(inst *entity.WorkflowInstance) InstanceView {
	now := time.Now()
	return InstanceView{
		WorkflowInstance: inst,
		Progress:         workflow.Progress(inst),
		TimeElapsed:      workflow.TimeElapsed(inst, now),
		TimeRemaining:    workflow.TimeRemaining(inst, now),
		IsOverdue:        workflow.IsOverdue(inst, now),
	}
}

// CreateTemplateRequest is the payload for POST /api/templates
type CreateTemplateRequest struct {
	Name        string                  `json:"name" binding:"required"`
	Description string                  `json:"description"`
	Category    entity.TemplateCategory `json:"category" binding:"required"`
	Department  string                  `json:"department"`
	Steps       []entity.StepDefinition `json:"steps" binding:"required"`
	CreatedBy   string                  `json:"created_by"`
}

// UpdateTemplateRequest is the payload for PATCH /api/templates/:id
type UpdateTemplateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// CreateInstanceRequest is the payload for POST /api/instances
type CreateInstanceRequest struct {
	TemplateID    int64                `json:"template_id" binding:"required"`
	Name          string               `json:"name"`
	Initiator     string               `json:"initiator" binding:"required"`
	RelatedEntity entity.RelatedEntity `json:"related_entity"`
	DueDate       *time.Time           `json:"due_date"`
}

// ActionRequest carries the acting user and an optional comment or reason.
type ActionRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

// CommentRequest is the payload for POST /api/instances/:id/comments
type CommentRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateTemplate handles POST /api/templates
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	tmpl := &entity.WorkflowTemplate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Department:  req.Department,
		Steps:       req.Steps,
		IsActive:    true,
		CreatedBy:   req.CreatedBy,
	}

	created, err := h.templateService.Create(c.Request.Context(), tmpl)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	filter := port.TemplateFilter{
		Category:   entity.TemplateCategory(c.Query("category")),
		Department: c.Query("department"),
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}
	limit, offset := pagination(c)

	templates, err := h.templateService.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: templates})
}

// GetTemplate handles GET /api/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	tmpl, err := h.templateService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: tmpl})
}

// UpdateTemplate handles PATCH /api/templates/:id
func (h *Handlers) UpdateTemplate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	tmpl, err := h.templateService.UpdateMetadata(c.Request.Context(), id, service.TemplateMetadataUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: tmpl})
}

// DeleteTemplate handles DELETE /api/templates/:id
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// CreateInstance handles POST /api/instances
func (h *Handlers) CreateInstance(c *gin.Context) {
	var req CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	inst, err := h.workflowService.CreateInstance(c.Request.Context(),
		req.TemplateID, req.Name, req.Initiator, req.RelatedEntity, req.DueDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: toInstanceView(inst)})
}

// ListInstances handles GET /api/instances
func (h *Handlers) ListInstances(c *gin.Context) {
	filter := port.InstanceFilter{
		Status:     entity.InstanceStatus(c.Query("status")),
		AssignedTo: c.Query("assigned_to"),
		Department: c.Query("department"),
	}
	limit, offset := pagination(c)

	instances, err := h.workflowService.ListInstances(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]InstanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, toInstanceView(inst))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// GetInstance handles GET /api/instances/:id
func (h *Handlers) GetInstance(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	inst, err := h.workflowService.GetInstance(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toInstanceView(inst)})
}

// GetHistory handles GET /api/instances/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	history, err := h.workflowService.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// ExportReport handles GET /api/instances/:id/report
func (h *Handlers) ExportReport(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	inst, err := h.workflowService.GetInstance(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	file, err := h.exporter.Export(inst)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	buf, err := file.WriteToBuffer()
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("workflow-%d-audit.xlsx", inst.ID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// StartInstance handles POST /api/instances/:id/start
func (h *Handlers) StartInstance(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	inst, err := h.workflowService.StartInstance(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toInstanceView(inst)})
}

// AdvanceStep handles POST /api/instances/:id/advance
func (h *Handlers) AdvanceStep(c *gin.Context) {
	h.actionEndpoint(c, func(id int64, req ActionRequest) (*entity.WorkflowInstance, error) {
		return h.workflowService.AdvanceStep(c.Request.Context(), id, req.ActorID, req.Comment)
	})
}

// RejectStep handles POST /api/instances/:id/reject
func (h *Handlers) RejectStep(c *gin.Context) {
	h.actionEndpoint(c, func(id int64, req ActionRequest) (*entity.WorkflowInstance, error) {
		return h.workflowService.RejectStep(c.Request.Context(), id, req.ActorID, req.Reason)
	})
}

// SkipStep handles POST /api/instances/:id/skip
func (h *Handlers) SkipStep(c *gin.Context) {
	h.actionEndpoint(c, func(id int64, req ActionRequest) (*entity.WorkflowInstance, error) {
		return h.workflowService.SkipStep(c.Request.Context(), id, req.ActorID, req.Reason)
	})
}

// PauseInstance handles POST /api/instances/:id/pause
func (h *Handlers) PauseInstance(c *gin.Context) {
	h.actionEndpoint(c, func(id int64, req ActionRequest) (*entity.WorkflowInstance, error) {
		return h.workflowService.PauseInstance(c.Request.Context(), id, req.ActorID)
	})
}

// ResumeInstance handles POST /api/instances/:id/resume
func (h *Handlers) ResumeInstance(c *gin.Context) {
	h.actionEndpoint(c, func(id int64, req ActionRequest) (*entity.WorkflowInstance, error) {
		return h.workflowService.ResumeInstance(c.Request.Context(), id, req.ActorID)
	})
}

// CancelInstance handles POST /api/instances/:id/cancel
func (h *Handlers) CancelInstance(c *gin.Context) {
	h.actionEndpoint(c, func(id int64, req ActionRequest) (*entity.WorkflowInstance, error) {
		return h.workflowService.CancelInstance(c.Request.Context(), id, req.ActorID, req.Reason)
	})
}

// AddComment handles POST /api/instances/:id/comments
func (h *Handlers) AddComment(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	inst, err := h.workflowService.AddComment(c.Request.Context(), id, req.ActorID, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toInstanceView(inst)})
}

// actionEndpoint factors the shared bind/act/respond shape of step actions.
func (h *Handlers) actionEndpoint(c *gin.Context, act func(int64, ActionRequest) (*entity.WorkflowInstance, error)) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	inst, err := act(id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toInstanceView(inst)})
}

// pathID parses the :id path parameter, responding 400 on garbage.
func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid ID in path", "id", idStr, "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Error("Invalid request payload", "error", err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request payload"})
}

// respondError maps domain errors to HTTP statuses. Validation and state
// errors carry their message to the client; corruption and persistence
// failures are logged and returned opaque.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var notFound *workflow.NotFoundError
	var validation *workflow.ValidationError
	var invalidState *workflow.InvalidStateError
	var conflict *workflow.ConcurrentModificationError
	var corrupt *workflow.CorruptInstanceError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: notFound.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: validation.Error()})
	case errors.As(err, &invalidState):
		c.JSON(http.StatusConflict, Response{Success: false, Error: invalidState.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: conflict.Error()})
	case errors.As(err, &corrupt):
		h.logger.Error("Corrupt instance", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
