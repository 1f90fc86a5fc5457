package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetActiveBranches handles the public GET /api/branches/active.
func (h *Handler) GetActiveBranches(c *gin.Context) {
	branches, err := h.store.ListBranches(c.Request.Context(), true)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]branchView, 0, len(branches))
	for _, b := range branches {
		views = append(views, newBranchView(b))
	}
	c.JSON(http.StatusOK, gin.H{"branches": views})
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "connected"})
}
