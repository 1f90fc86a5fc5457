package api

import (
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"washsync-backend/internal/machine"
	"washsync-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	machines *machine.Service
	webpush  *webpush.Options
}

// NewHandler creates a new API handler. webpushOptions may be nil when push
// delivery is not configured.
func NewHandler(s store.Store, machines *machine.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		machines: machines,
		webpush:  webpushOptions,
	}
}

func paramID(c *gin.Context, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}
