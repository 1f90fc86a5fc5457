package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"washsync-backend/internal/auth"
	"washsync-backend/internal/model"
	"washsync-backend/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription binds a browser push subscription to the calling user,
// replacing any previous owner of the endpoint.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	id, _ := auth.IdentityFrom(c)

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		UserID:   id.UserID,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.store.PutSubscription(c.Request.Context(), &sub); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the calling user's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	id, _ := auth.IdentityFrom(c)

	if err := h.store.DeleteSubscription(c.Request.Context(), id.UserID, req.Endpoint); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
