package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetVAPIDPublicKey returns the key browsers need to create a push
// subscription for this server.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "push notifications are disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": h.webpush.VAPIDPublicKey})
}
