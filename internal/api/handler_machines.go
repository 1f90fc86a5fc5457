package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"washsync-backend/internal/auth"
	"washsync-backend/internal/machine"
	"washsync-backend/internal/model"
)

type occupyRequest struct {
	Duration *int `json:"duration"`
}

// respondMachine writes {message, machine} with the rendered machine.
func (h *Handler) respondMachine(c *gin.Context, message string, m *model.Machine) {
	view, err := h.machineView(c.Request.Context(), m)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "machine": view})
}

// ListMachines handles GET /api/machines. Admins may filter with ?branchId=.
func (h *Handler) ListMachines(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)

	var branchID *int64
	if raw := c.Query("branchId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid branch ID"})
			return
		}
		branchID = &v
	}

	machines, err := h.machines.List(c.Request.Context(), id, branchID)
	if err != nil {
		writeError(c, err)
		return
	}
	views, err := h.machineViews(c.Request.Context(), machines)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Machines retrieved successfully",
		"machines": views,
	})
}

// GetMachine handles GET /api/machines/:id.
func (h *Handler) GetMachine(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}
	id, _ := auth.IdentityFrom(c)

	m, err := h.machines.Get(c.Request.Context(), id, machineID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondMachine(c, "Machine retrieved successfully", m)
}

// GetQueue handles the public GET /api/machines/:id/queue.
func (h *Handler) GetQueue(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}

	m, err := h.machines.Queue(c.Request.Context(), machineID)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.machineView(c.Request.Context(), m)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"machineId": view.ID,
		"name":      view.Name,
		"status":    view.Status,
		"queue":     view.Queue,
	})
}

// OccupyMachine handles POST /api/machines/:id/occupy.
func (h *Handler) OccupyMachine(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}
	var req occupyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Duration == nil {
		writeError(c, machine.ErrInvalidDuration)
		return
	}
	id, _ := auth.IdentityFrom(c)

	m, err := h.machines.Occupy(c.Request.Context(), id, machineID, *req.Duration)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondMachine(c, "Machine occupied successfully", m)
}

// ReleaseMachine handles POST /api/machines/:id/release.
func (h *Handler) ReleaseMachine(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}
	id, _ := auth.IdentityFrom(c)

	m, err := h.machines.Release(c.Request.Context(), id, machineID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondMachine(c, "Machine released successfully", m)
}

// JoinQueue handles POST /api/machines/:id/queue/join.
func (h *Handler) JoinQueue(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}
	id, _ := auth.IdentityFrom(c)

	m, position, err := h.machines.JoinQueue(c.Request.Context(), id, machineID)
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := h.machineView(c.Request.Context(), m)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("Joined queue successfully. Position: %d", position),
		"position": position,
		"machine":  view,
	})
}

// LeaveQueue handles POST /api/machines/:id/queue/leave.
func (h *Handler) LeaveQueue(c *gin.Context) {
	machineID, ok := paramID(c, "id", "machine")
	if !ok {
		return
	}
	id, _ := auth.IdentityFrom(c)

	m, err := h.machines.LeaveQueue(c.Request.Context(), id, machineID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondMachine(c, "Left queue successfully", m)
}
