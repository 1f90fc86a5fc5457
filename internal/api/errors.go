package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"washsync-backend/internal/machine"
)

var codeStatus = map[machine.Code]int{
	machine.CodeNotFound:                  http.StatusNotFound,
	machine.CodeBranchMismatch:            http.StatusForbidden,
	machine.CodeForbidden:                 http.StatusForbidden,
	machine.CodeInvalidDuration:           http.StatusBadRequest,
	machine.CodeInvalidStatus:             http.StatusBadRequest,
	machine.CodeInvalidName:               http.StatusBadRequest,
	machine.CodeDuplicateName:             http.StatusBadRequest,
	machine.CodeBranchNotFound:            http.StatusBadRequest,
	machine.CodeBranchUnassigned:          http.StatusBadRequest,
	machine.CodeMachineUnavailable:        http.StatusBadRequest,
	machine.CodeMachineUnderMaintenance:   http.StatusBadRequest,
	machine.CodeNotOccupied:               http.StatusBadRequest,
	machine.CodeAlreadyOccupying:          http.StatusBadRequest,
	machine.CodeAlreadyOccupyingElsewhere: http.StatusBadRequest,
	machine.CodeAlreadyQueued:             http.StatusBadRequest,
	machine.CodeAlreadyQueuedElsewhere:    http.StatusBadRequest,
	machine.CodeNotInQueue:                http.StatusBadRequest,
	machine.CodeNotExpired:                http.StatusBadRequest,
}

// writeError aborts the request with the status and message for err.
// Unrecognised errors are logged and reported as a generic 500.
func writeError(c *gin.Context, err error) {
	var merr *machine.Error
	if errors.As(err, &merr) {
		status, ok := codeStatus[merr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		c.AbortWithStatusJSON(status, gin.H{"error": merr.Message})
		return
	}
	if errors.Is(err, machine.ErrConcurrentUpdate) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[api] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
