package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markflow/markflow/internal/workflow/model"
	"github.com/markflow/markflow/internal/workflow/service"
)

// UserRouter serves the team directory.
type UserRouter struct {
	users *service.UserService
}

func NewUserRouter(users *service.UserService) *UserRouter {
	return &UserRouter{users: users}
}

// HandleListUsers handles GET /api/users requests.
// Optional query params: offset, limit.
func (ur *UserRouter) HandleListUsers(c *gin.Context) {
	offset, limit, ok := pagination(c)
	if !ok {
		return
	}

	users, err := ur.users.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// HandleGetUser handles GET /api/users/:userID requests.
func (ur *UserRouter) HandleGetUser(c *gin.Context) {
	id, ok := pathUUID(c, "userID")
	if !ok {
		return
	}

	user, err := ur.users.GetUserByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleCreateUser handles POST /api/users requests.
func (ur *UserRouter) HandleCreateUser(c *gin.Context) {
	var req model.CreateUserDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	user, err := ur.users.CreateUser(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
