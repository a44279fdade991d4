package router

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
	"github.com/markflow/markflow/utils"
)

// abortWithError maps a domain error onto the HTTP status it deserves and
// writes a JSON error body.
func abortWithError(c *gin.Context, err error) {
	var (
		validationErr *model.ValidationError
		referenceErr  *model.InvalidReferenceError
		cycleErr      *model.CycleError
		actionErr     *model.ActionNotAllowedError
		stateErr      *model.InvalidStateError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &referenceErr):
		status = http.StatusNotFound
	case errors.As(err, &cycleErr):
		status = http.StatusConflict
	case errors.As(err, &actionErr):
		status = http.StatusForbidden
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// pathUUID parses a uuid path parameter, aborting with 400 on garbage.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": " + err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads offset/limit query parameters and clamps them.
func pagination(c *gin.Context) (int, int, bool) {
	var offset, limit *int

	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'offset' query parameter, must be an integer"})
			return 0, 0, false
		}
		offset = &v
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' query parameter, must be an integer"})
			return 0, 0, false
		}
		limit = &v
	}

	o, l := utils.GetPaginationParams(offset, limit)
	return o, l, true
}
