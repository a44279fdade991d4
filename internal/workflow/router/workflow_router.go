package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markflow/markflow/internal/workflow/model"
	"github.com/markflow/markflow/internal/workflow/service"
)

// WorkflowRouter serves workflow graph authoring.
type WorkflowRouter struct {
	graphs *service.GraphService
}

func NewWorkflowRouter(graphs *service.GraphService) *WorkflowRouter {
	return &WorkflowRouter{graphs: graphs}
}

// HandleListWorkflows handles GET /api/workflows requests.
// Optional query params: offset, limit.
func (wr *WorkflowRouter) HandleListWorkflows(c *gin.Context) {
	offset, limit, ok := pagination(c)
	if !ok {
		return
	}

	workflows, err := wr.graphs.ListWorkflows(c.Request.Context(), offset, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflows)
}

// HandleGetWorkflow handles GET /api/workflows/:workflowID requests.
func (wr *WorkflowRouter) HandleGetWorkflow(c *gin.Context) {
	id, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}

	workflow, err := wr.graphs.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflow)
}

// HandleCreateWorkflow handles POST /api/workflows requests.
func (wr *WorkflowRouter) HandleCreateWorkflow(c *gin.Context) {
	var req model.CreateWorkflowDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	workflow, err := wr.graphs.CreateWorkflow(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workflow)
}

// HandleSaveWorkflow handles PUT /api/workflows/:workflowID requests. The
// body is a full graph snapshot; the stored version is bumped on success.
func (wr *WorkflowRouter) HandleSaveWorkflow(c *gin.Context) {
	id, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}

	var submitted model.Workflow
	if err := c.ShouldBindJSON(&submitted); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	saved, err := wr.graphs.SaveWorkflow(c.Request.Context(), id, &submitted)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// HandleDeleteWorkflow handles DELETE /api/workflows/:workflowID requests.
func (wr *WorkflowRouter) HandleDeleteWorkflow(c *gin.Context) {
	id, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}

	if err := wr.graphs.DeleteWorkflow(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleAddBlock handles POST /api/workflows/:workflowID/blocks requests.
func (wr *WorkflowRouter) HandleAddBlock(c *gin.Context) {
	id, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}

	var req model.AddBlockDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	block, err := wr.graphs.AddBlock(c.Request.Context(), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

// HandleUpdateBlock handles PATCH /api/workflows/:workflowID/blocks/:blockID
// requests with a partial configuration.
func (wr *WorkflowRouter) HandleUpdateBlock(c *gin.Context) {
	id, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}
	blockID := c.Param("blockID")

	var patch model.UpdateBlockConfigDTO
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	block, err := wr.graphs.UpdateBlockConfig(c.Request.Context(), id, blockID, &patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

// HandleRemoveBlock handles DELETE /api/workflows/:workflowID/blocks/:blockID
// requests.
func (wr *WorkflowRouter) HandleRemoveBlock(c *gin.Context) {
	id, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}

	if err := wr.graphs.RemoveBlock(c.Request.Context(), id, c.Param("blockID")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleConnect handles POST /api/workflows/:workflowID/connections requests.
func (wr *WorkflowRouter) HandleConnect(c *gin.Context) {
	id, ok := pathUUID(c, "workflowID")
	if !ok {
		return
	}

	var req model.ConnectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	conn, err := wr.graphs.Connect(c.Request.Context(), id, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}
