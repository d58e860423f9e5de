package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListCommunes returns all commune names sorted for display
func (h *Handler) ListCommunes(c *gin.Context) {
	c.JSON(http.StatusOK, h.communes.Communes())
}

// GetCommune resolves a commune name or zip code
func (h *Handler) GetCommune(c *gin.Context) {
	record, err := h.estimator.Resolve(c.Param("key"))
	if err != nil {
		h.writeError(c, err, "Failed to resolve commune")
		return
	}
	c.JSON(http.StatusOK, record)
}
