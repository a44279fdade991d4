package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markflow/markflow/internal/uploads"
	"github.com/markflow/markflow/internal/workflow/model"
	"github.com/markflow/markflow/internal/workflow/service"
)

// TaskRouter serves tasks, their step instances and the dashboard metrics.
type TaskRouter struct {
	tasks     *service.TaskService
	instances *service.InstanceService
	metrics   *service.MetricsService
	uploads   *uploads.UploadService
}

func NewTaskRouter(tasks *service.TaskService, instances *service.InstanceService, metrics *service.MetricsService, uploadSvc *uploads.UploadService) *TaskRouter {
	return &TaskRouter{tasks: tasks, instances: instances, metrics: metrics, uploads: uploadSvc}
}

// HandleListTasks handles GET /api/tasks requests.
// Optional query params: offset, limit.
func (tr *TaskRouter) HandleListTasks(c *gin.Context) {
	offset, limit, ok := pagination(c)
	if !ok {
		return
	}

	tasks, err := tr.tasks.ListTasks(c.Request.Context(), offset, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// HandleGetTask handles GET /api/tasks/:taskID requests.
func (tr *TaskRouter) HandleGetTask(c *gin.Context) {
	id, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}

	task, err := tr.tasks.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// HandleCreateTask handles POST /api/tasks requests.
func (tr *TaskRouter) HandleCreateTask(c *gin.Context) {
	var req model.CreateTaskDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	task, err := tr.tasks.CreateTask(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// HandleUpdateTask handles PUT /api/tasks/:taskID requests.
func (tr *TaskRouter) HandleUpdateTask(c *gin.Context) {
	id, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}

	var patch model.UpdateTaskDTO
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	task, err := tr.tasks.UpdateTask(c.Request.Context(), id, &patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// HandleUpdateTaskStatus handles PATCH /api/tasks/:taskID/status requests.
func (tr *TaskRouter) HandleUpdateTaskStatus(c *gin.Context) {
	id, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}

	var req model.UpdateTaskStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	task, err := tr.tasks.UpdateTaskStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// HandleDeleteTask handles DELETE /api/tasks/:taskID requests.
func (tr *TaskRouter) HandleDeleteTask(c *gin.Context) {
	id, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}

	if err := tr.tasks.DeleteTask(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleApplyWorkflow handles POST /api/tasks/:taskID/apply-workflow/:workflowID
// requests. One step instance is created per workflow block.
func (tr *TaskRouter) HandleApplyWorkflow(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}
	workflowID, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}

	// Assignments are optional; an empty body means block-level assignees
	var req model.ApplyWorkflowDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	steps, err := tr.instances.ApplyWorkflowToTask(c.Request.Context(), taskID, workflowID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, steps)
}

// HandleGetSteps handles GET /api/tasks/:taskID/steps requests.
func (tr *TaskRouter) HandleGetSteps(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}

	steps, err := tr.instances.GetStepsByTaskID(c.Request.Context(), taskID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}

// HandleUpdateStepStatus handles PATCH /api/tasks/:taskID/steps/:stepID/status
// requests. An explicit action drives the state machine; a bare status of
// "in-progress" starts a waiting step.
func (tr *TaskRouter) HandleUpdateStepStatus(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}
	stepID, ok := pathUUID(c, "stepID")
	if !ok {
		return
	}

	var req model.UpdateStepStatusDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if req.Action != nil {
		result, err := tr.instances.ExecuteAction(c.Request.Context(), taskID, stepID, *req.Action, req.UserID, req.Comment)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	if req.Status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either 'action' or 'status' is required"})
		return
	}
	if *req.Status != model.StepStatusInProgress {
		c.JSON(http.StatusBadRequest, gin.H{"error": "terminal statuses must be reached through actions"})
		return
	}

	step, err := tr.instances.StartStep(c.Request.Context(), taskID, stepID, req.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, &service.StepTransitionResult{Step: step})
}

// HandleAddComment handles POST /api/tasks/:taskID/steps/:stepID/comments
// requests.
func (tr *TaskRouter) HandleAddComment(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}
	stepID, ok := pathUUID(c, "stepID")
	if !ok {
		return
	}

	var req model.AddCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	step, err := tr.instances.AddComment(c.Request.Context(), taskID, stepID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

// HandleAddAttachment handles POST /api/tasks/:taskID/steps/:stepID/attachments
// requests. Multipart form with a "file" part and a "userId" field; the
// binary goes through the storage driver, the metadata onto the step.
func (tr *TaskRouter) HandleAddAttachment(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskID")
	if !ok {
		return
	}
	stepID, ok := pathUUID(c, "stepID")
	if !ok {
		return
	}

	userID := c.PostForm("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId form field is required"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file: " + err.Error()})
		return
	}
	defer file.Close()

	stored, err := tr.uploads.Store(c.Request.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	attachment := model.TaskAttachment{
		ID:       stored.ID.String(),
		FileName: stored.Name,
		FileURL:  stored.URL,
		FileType: stored.MimeType,
		FileSize: stored.Size,
	}

	step, err := tr.instances.AddAttachment(c.Request.Context(), taskID, stepID, userID, attachment)
	if err != nil {
		// The step rejected the upload; drop the orphaned binary
		tr.uploads.Discard(c.Request.Context(), stored.Key)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

// HandleTaskMetrics handles GET /api/metrics/tasks requests.
func (tr *TaskRouter) HandleTaskMetrics(c *gin.Context) {
	metrics, err := tr.metrics.TaskMetrics(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}
