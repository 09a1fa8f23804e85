package http

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/service"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/report"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/repository"
)

type quietLogger struct{}

func (quietLogger) Info(msg string, keysAndValues ...interface{})  {}
func (quietLogger) Error(msg string, keysAndValues ...interface{}) {}

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../../migrations/001_initial_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	zlog := zap.NewNop()
	templateRepo := repository.NewTemplateRepository(db, zlog)
	instanceRepo := repository.NewInstanceRepository(db, zlog)
	engine := workflow.NewEngine()

	logger := quietLogger{}
	workflowService := service.NewWorkflowService(templateRepo, instanceRepo, engine, nil, logger)
	templateService := service.NewTemplateService(templateRepo, instanceRepo, logger)
	exporter := report.NewAuditExporter(zlog)

	server := NewServer(DefaultServerConfig(), workflowService, templateService, exporter, logger)
	return server.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func createTestTemplate(t *testing.T, router *gin.Engine) int64 {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/templates", gin.H{
		"name":     "Purchase approval",
		"category": "procurement",
		"steps": []gin.H{
			{"step_number": 1, "name": "Manager sign-off", "assigned_role": "manager", "required_approvals": 1, "duration_in_days": 2},
			{"step_number": 2, "name": "Finance review", "assigned_role": "department_head", "required_approvals": 1, "duration_in_days": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	return int64(data["id"].(float64))
}

func createTestInstance(t *testing.T, router *gin.Engine, templateID int64) int64 {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/instances", gin.H{
		"template_id": templateID,
		"initiator":   "u-init",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	return int64(data["id"].(float64))
}

func TestHealthCheck(t *testing.T) {
	router := setupTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestCreateTemplate_Invalid(t *testing.T) {
	router := setupTestServer(t)

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/templates", gin.H{"name": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("domain validation", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/templates", gin.H{
			"name":     "Broken process",
			"category": "procurement",
			"steps": []gin.H{
				{"step_number": 1, "name": "A", "assigned_role": "manager", "required_approvals": 1},
				{"step_number": 1, "name": "B", "assigned_role": "manager", "required_approvals": 1},
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Contains(t, resp.Error, "duplicate step number")
	})
}

func TestInstanceLifecycle(t *testing.T) {
	router := setupTestServer(t)
	templateID := createTestTemplate(t, router)
	instanceID := createTestInstance(t, router, templateID)

	// Created draft
	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/instances/%d", instanceID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "draft", data["status"])
	assert.Equal(t, 0.0, data["progress"])

	// Start
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/start", instanceID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "active", data["status"])
	assert.Equal(t, 1.0, data["current_step"])

	// Advance step 1
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/advance", instanceID),
		gin.H{"actor_id": "u-mgr", "comment": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, 2.0, data["current_step"])
	assert.Equal(t, 50.0, data["progress"])

	// Advance step 2: the instance completes
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/advance", instanceID),
		gin.H{"actor_id": "u-fin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "completed", data["status"])
	assert.Equal(t, 100.0, data["progress"])

	// Advancing a completed instance conflicts
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/advance", instanceID),
		gin.H{"actor_id": "u-fin"})
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeResponse(t, w)
	assert.Contains(t, resp.Error, "instance is completed")

	// The full trail is visible
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/instances/%d/history", instanceID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeResponse(t, w).Data.([]interface{})
	assert.GreaterOrEqual(t, len(history), 5)
}

func TestRejectInstance(t *testing.T) {
	router := setupTestServer(t)
	templateID := createTestTemplate(t, router)
	instanceID := createTestInstance(t, router, templateID)

	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/start", instanceID), nil)

	t.Run("reason required", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/reject", instanceID),
			gin.H{"actor_id": "u-mgr"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reject", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/reject", instanceID),
			gin.H{"actor_id": "u-mgr", "reason": "over budget"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeResponse(t, w).Data.(map[string]interface{})
		assert.Equal(t, "rejected", data["status"])
	})
}

func TestPauseResumeCancel(t *testing.T) {
	router := setupTestServer(t)
	templateID := createTestTemplate(t, router)
	instanceID := createTestInstance(t, router, templateID)

	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/start", instanceID), nil)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/pause", instanceID),
		gin.H{"actor_id": "u-admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A paused instance cannot advance
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/advance", instanceID),
		gin.H{"actor_id": "u-mgr"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/resume", instanceID),
		gin.H{"actor_id": "u-admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/cancel", instanceID),
		gin.H{"actor_id": "u-admin", "reason": "superseded"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "cancelled", data["status"])
}

func TestAddComment(t *testing.T) {
	router := setupTestServer(t)
	templateID := createTestTemplate(t, router)
	instanceID := createTestInstance(t, router, templateID)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/comments", instanceID),
		gin.H{"actor_id": "u-obs", "text": "waiting on vendor"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeResponse(t, w).Data.(map[string]interface{})
	comments := data["comments"].([]interface{})
	require.Len(t, comments, 1)
}

func TestTemplateDeletion(t *testing.T) {
	router := setupTestServer(t)
	templateID := createTestTemplate(t, router)
	createTestInstance(t, router, templateID)

	// Refused while a live instance references it
	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/templates/%d", templateID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Contains(t, resp.Error, "active instance")
}

func TestNotFoundAndBadIDs(t *testing.T) {
	router := setupTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/instances/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/templates/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/instances/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListInstancesFilter(t *testing.T) {
	router := setupTestServer(t)
	templateID := createTestTemplate(t, router)
	first := createTestInstance(t, router, templateID)
	createTestInstance(t, router, templateID)

	doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/instances/%d/start", first), nil)

	w := doJSON(t, router, http.MethodGet, "/api/instances?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	views := decodeResponse(t, w).Data.([]interface{})
	require.Len(t, views, 1)

	w = doJSON(t, router, http.MethodGet, "/api/instances", nil)
	require.Equal(t, http.StatusOK, w.Code)
	views = decodeResponse(t, w).Data.([]interface{})
	assert.Len(t, views, 2)
}

func TestExportReport(t *testing.T) {
	router := setupTestServer(t)
	templateID := createTestTemplate(t, router)
	instanceID := createTestInstance(t, router, templateID)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/instances/%d/report", instanceID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "audit.xlsx")
	assert.NotZero(t, w.Body.Len())
}
