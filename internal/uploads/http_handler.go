package uploads

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPHandler serves stored files back for locally hosted storage.
type HTTPHandler struct {
	Service *UploadService
}

func NewHTTPHandler(service *UploadService) *HTTPHandler {
	return &HTTPHandler{Service: service}
}

// Download handles GET /api/uploads/:key requests.
func (h *HTTPHandler) Download(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	reader, contentType, err := h.Service.Fetch(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}
