package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markflow/markflow/internal/workflow/model"
	"github.com/markflow/markflow/internal/workflow/service"
)

// BlockRouter serves the block definition registry.
type BlockRouter struct {
	registry *service.RegistryService
}

func NewBlockRouter(registry *service.RegistryService) *BlockRouter {
	return &BlockRouter{registry: registry}
}

// HandleListBlocks handles GET /api/blocks requests.
func (br *BlockRouter) HandleListBlocks(c *gin.Context) {
	blocks, err := br.registry.ListBlocks(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

// HandleRegisterBlock handles POST /api/blocks requests.
func (br *BlockRouter) HandleRegisterBlock(c *gin.Context) {
	var req model.RegisterBlockDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	def, err := br.registry.RegisterCustomBlock(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, def)
}
