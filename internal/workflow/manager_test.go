package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/markflow/markflow/internal/uploads"
	"github.com/markflow/markflow/internal/uploads/drivers"
	"github.com/markflow/markflow/internal/workflow/model"
)

func setupTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.BlockDefinition{},
		&model.Workflow{},
		&model.Task{},
		&model.TaskStep{},
		&model.User{},
	))

	driver, err := drivers.NewLocalFSDriver(t.TempDir(), "/api/uploads")
	require.NoError(t, err)

	engine := gin.New()
	NewManager(db, uploads.NewUploadService(driver)).RegisterRoutes(engine)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAPI_BlockRegistry(t *testing.T) {
	engine := setupTestAPI(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/blocks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	builtins := decode[[]model.BlockDefinition](t, rec)
	assert.Len(t, builtins, 5)

	rec = doJSON(t, engine, http.MethodPost, "/api/blocks", model.RegisterBlockDTO{Name: "Legal Check"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/blocks", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/blocks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.BlockDefinition](t, rec), 6)
}

func TestAPI_WorkflowAuthoring(t *testing.T) {
	engine := setupTestAPI(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/workflows", model.CreateWorkflowDTO{Name: "Campaign Launch"})
	require.Equal(t, http.StatusCreated, rec.Code)
	workflow := decode[model.Workflow](t, rec)

	base := fmt.Sprintf("/api/workflows/%s", workflow.ID)

	rec = doJSON(t, engine, http.MethodPost, base+"/blocks", model.AddBlockDTO{Type: model.BlockTypeCreate})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[model.WorkflowBlock](t, rec)
	assert.Equal(t, "Create Content", first.Label)

	rec = doJSON(t, engine, http.MethodPost, base+"/blocks", model.AddBlockDTO{Type: model.BlockTypeReview})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[model.WorkflowBlock](t, rec)

	rec = doJSON(t, engine, http.MethodPost, base+"/connections", model.ConnectDTO{Source: first.ID, Target: second.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The reverse edge closes a cycle.
	rec = doJSON(t, engine, http.MethodPost, base+"/connections", model.ConnectDTO{Source: second.ID, Target: first.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// An edge to a missing block is a dangling reference.
	rec = doJSON(t, engine, http.MethodPost, base+"/connections", model.ConnectDTO{Source: first.ID, Target: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodPatch, base+"/blocks/"+second.ID, map[string]any{"sla": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodPatch, base+"/blocks/"+second.ID, map[string]any{"sla": 48, "role": "legal"})
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode[model.WorkflowBlock](t, rec)
	assert.Equal(t, 48, patched.SLA)
	assert.Equal(t, "legal", patched.Role)

	rec = doJSON(t, engine, http.MethodDelete, base+"/blocks/"+second.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[model.Workflow](t, rec)
	assert.Len(t, stored.Blocks, 1)
	assert.Empty(t, stored.Connections)
}

func TestAPI_TaskExecution(t *testing.T) {
	engine := setupTestAPI(t)

	// Author a two block workflow with permissive actions.
	rec := doJSON(t, engine, http.MethodPost, "/api/workflows", model.CreateWorkflowDTO{Name: "Campaign Launch"})
	require.Equal(t, http.StatusCreated, rec.Code)
	workflow := decode[model.Workflow](t, rec)
	base := fmt.Sprintf("/api/workflows/%s", workflow.ID)

	rec = doJSON(t, engine, http.MethodPost, base+"/blocks", model.AddBlockDTO{Type: model.BlockTypeCreate})
	first := decode[model.WorkflowBlock](t, rec)
	rec = doJSON(t, engine, http.MethodPost, base+"/blocks", model.AddBlockDTO{Type: model.BlockTypeReview})
	second := decode[model.WorkflowBlock](t, rec)

	rec = doJSON(t, engine, http.MethodPatch, base+"/blocks/"+first.ID, map[string]any{
		"actions": []string{"approve", "reject", "comment", "upload"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, engine, http.MethodPost, base+"/connections", model.ConnectDTO{Source: first.ID, Target: second.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Create the task and apply the workflow.
	rec = doJSON(t, engine, http.MethodPost, "/api/tasks", model.CreateTaskDTO{Title: "Spring newsletter", CreatorID: "creator-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[model.Task](t, rec)

	rec = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/tasks/%s/apply-workflow/%s", task.ID, workflow.ID), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	steps := decode[[]model.TaskStep](t, rec)
	require.Len(t, steps, 2)

	var rootStep model.TaskStep
	for _, s := range steps {
		if s.BlockID == first.ID {
			rootStep = s
		}
	}
	require.NotNil(t, rootStep.StartDate)

	stepPath := fmt.Sprintf("/api/tasks/%s/steps/%s", task.ID, rootStep.ID)

	// A bare terminal status is rejected; transitions go through actions.
	rec = doJSON(t, engine, http.MethodPatch, stepPath+"/status", map[string]any{"userId": "user-1", "status": "completed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, stepPath+"/comments", model.AddCommentDTO{UserID: "user-1", Text: "first draft ready"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, engine, http.MethodPatch, stepPath+"/status", map[string]any{"userId": "user-1", "action": "approve"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The dependent step was activated by the approval.
	rec = doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/tasks/%s/steps", task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	after := decode[[]model.TaskStep](t, rec)
	for _, s := range after {
		switch s.BlockID {
		case first.ID:
			assert.Equal(t, model.StepStatusCompleted, s.Status)
			assert.NotNil(t, s.CompletedDate)
		case second.ID:
			assert.NotNil(t, s.StartDate)
		}
	}

	// Approving again conflicts with the terminal state.
	rec = doJSON(t, engine, http.MethodPatch, stepPath+"/status", map[string]any{"userId": "user-1", "action": "approve"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The review block allows no actions at all.
	var reviewStep model.TaskStep
	for _, s := range after {
		if s.BlockID == second.ID {
			reviewStep = s
		}
	}
	rec = doJSON(t, engine, http.MethodPatch, fmt.Sprintf("/api/tasks/%s/steps/%s/status", task.ID, reviewStep.ID),
		map[string]any{"userId": "user-1", "action": "approve"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/metrics/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := decode[model.TaskMetricsDTO](t, rec)
	assert.Equal(t, int64(1), metrics.StepsByStatus[model.StepStatusCompleted])
}

func TestAPI_Attachment(t *testing.T) {
	engine := setupTestAPI(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/workflows", model.CreateWorkflowDTO{Name: "Campaign Launch"})
	workflow := decode[model.Workflow](t, rec)
	base := fmt.Sprintf("/api/workflows/%s", workflow.ID)

	rec = doJSON(t, engine, http.MethodPost, base+"/blocks", model.AddBlockDTO{Type: model.BlockTypeCreate})
	block := decode[model.WorkflowBlock](t, rec)
	rec = doJSON(t, engine, http.MethodPatch, base+"/blocks/"+block.ID, map[string]any{"actions": []string{"upload"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, engine, http.MethodPost, "/api/tasks", model.CreateTaskDTO{Title: "Spring newsletter", CreatorID: "creator-1"})
	task := decode[model.Task](t, rec)
	rec = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/tasks/%s/apply-workflow/%s", task.ID, workflow.ID), nil)
	steps := decode[[]model.TaskStep](t, rec)
	require.Len(t, steps, 1)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("userId", "user-1"))
	part, err := writer.CreateFormFile("file", "banner.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/tasks/%s/steps/%s/attachments", task.ID, steps[0].ID), &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	engine.ServeHTTP(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	step := decode[model.TaskStep](t, res)
	require.Len(t, step.Attachments, 1)
	assert.Equal(t, "banner.png", step.Attachments[0].FileName)
	assert.Contains(t, step.Attachments[0].FileURL, "/api/uploads/")
}

func TestAPI_NotFoundMapping(t *testing.T) {
	engine := setupTestAPI(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/workflows/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, engine, http.MethodGet, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
