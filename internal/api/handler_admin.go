package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"washsync-backend/internal/machine"
	"washsync-backend/internal/model"
	"washsync-backend/internal/store"
)

type createMachineRequest struct {
	Name     string `json:"name"`
	BranchID int64  `json:"branchId"`
}

type setStatusRequest struct {
	Status model.MachineStatus `json:"status"`
}

type assignBranchRequest struct {
	BranchID *int64 `json:"branchId"`
}

// CreateMachine handles POST /api/admin/machines.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	m, err := h.machines.Create(c.Request.Context(), req.BranchID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.machineView(c.Request.Context(), m)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Machine added successfully", "machine": view})
}

// DeleteMachine handles DELETE /api/admin/machines/:id.
func (h *Handler) DeleteMachine(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}
	if err := h.machines.Delete(c.Request.Context(), machineID); err != nil {
		writeError(c, err)
		return
	}
	log.Printf("[api] machine %d deleted", machineID)
	c.JSON(http.StatusOK, gin.H{"message": "Machine deleted successfully"})
}

// SetMachineStatus handles PATCH /api/admin/machines/:id/status.
func (h *Handler) SetMachineStatus(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, machine.ErrInvalidStatus)
		return
	}

	m, err := h.machines.SetStatus(c.Request.Context(), machineID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondMachine(c, "Machine status updated successfully", m)
}

// OverrideMachine handles POST /api/admin/machines/:id/override.
func (h *Handler) OverrideMachine(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}

	m, err := h.machines.Override(c.Request.Context(), machineID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondMachine(c, "Machine state overridden successfully", m)
}

// ListUsers handles GET /api/admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// AssignUserBranch handles PATCH /api/admin/users/:id/branch. A null
// branchId unassigns the user.
func (h *Handler) AssignUserBranch(c *gin.Context) {
	userID, ok := paramID(c, "id", "user")
	if !ok {
		return
	}
	var req assignBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if req.BranchID != nil {
		if _, err := h.store.GetBranch(ctx, *req.BranchID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				err = machine.ErrBranchNotFound
			}
			writeError(c, err)
			return
		}
	}

	if err := h.store.AssignUserBranch(ctx, userID, req.BranchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		writeError(c, err)
		return
	}

	u, err := h.store.GetUser(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User branch updated successfully", "user": newUserView(*u)})
}
