package machine

import (
	"fmt"
	"time"

	"washsync-backend/internal/model"
	"washsync-backend/internal/notification"
)

const (
	MinDuration = 1
	MaxDuration = 180
)

// Identity is the authenticated caller as resolved by the auth layer.
type Identity struct {
	UserID   int64
	BranchID *int64
	IsAdmin  bool
}

// checkBranch rejects non-admin callers acting on another branch's machine.
func checkBranch(m *model.Machine, id Identity) error {
	if id.IsAdmin {
		return nil
	}
	if id.BranchID == nil {
		return ErrBranchUnassigned
	}
	if *id.BranchID != m.BranchID {
		return ErrBranchMismatch
	}
	return nil
}

// occupyingOther returns the machine in scope, other than self, that userID is using.
func occupyingOther(scope []model.Machine, self, userID int64) *model.Machine {
	for i := range scope {
		if scope[i].ID != self && scope[i].OccupiedBy(userID) {
			return &scope[i]
		}
	}
	return nil
}

// queuedOther returns the machine in scope, other than self, that userID waits for.
func queuedOther(scope []model.Machine, self, userID int64) *model.Machine {
	for i := range scope {
		if scope[i].ID != self && scope[i].InQueue(userID) {
			return &scope[i]
		}
	}
	return nil
}

// Occupy starts a session for id on m. scope holds the machines the
// one-machine-per-user rules are checked against; m itself may be in it.
func Occupy(m *model.Machine, scope []model.Machine, id Identity, minutes int, now time.Time) error {
	if minutes < MinDuration || minutes > MaxDuration {
		return ErrInvalidDuration
	}
	if err := checkBranch(m, id); err != nil {
		return err
	}
	switch m.Status {
	case model.StatusMaintenance:
		return ErrMachineUnderMaintenance
	case model.StatusInUse:
		return ErrMachineUnavailable
	}
	if other := occupyingOther(scope, m.ID, id.UserID); other != nil {
		return newError(CodeAlreadyOccupyingElsewhere,
			"You are currently using %q. Please finish or release it before starting another wash.", other.Name)
	}
	if other := queuedOther(scope, m.ID, id.UserID); other != nil {
		return newError(CodeAlreadyQueuedElsewhere,
			"You are queued for %q. Please leave that queue before starting a wash here.", other.Name)
	}

	// Occupying consumes the caller's own wait on this machine.
	m.RemoveFromQueue(id.UserID)
	m.StartOccupancy(id.UserID, now, minutes)
	return nil
}

// Release ends the session on m early and promotes the queue head.
func Release(m *model.Machine, id Identity) ([]notification.Event, error) {
	// The occupant may always end their own session, even after moving branch.
	if !m.OccupiedBy(id.UserID) {
		if err := checkBranch(m, id); err != nil {
			return nil, err
		}
	}
	if m.Status != model.StatusInUse {
		return nil, ErrNotOccupied
	}
	if !m.OccupiedBy(id.UserID) && !id.IsAdmin {
		return nil, ErrForbidden
	}

	m.ClearOccupancy()
	m.Status = model.StatusAvailable

	var events []notification.Event
	if head, ok := m.PopQueueHead(); ok {
		events = append(events, notification.Event{
			UserID:    head.UserID,
			MachineID: m.ID,
			Category:  model.NotificationYourTurn,
			Message:   fmt.Sprintf("Machine %q is now available! It's your turn.", m.Name),
		})
	}
	return events, nil
}

// Expire releases m when its timer has run out at now, notifying the
// occupant and promoting the queue head.
func Expire(m *model.Machine, now time.Time) ([]notification.Event, error) {
	if m.Status != model.StatusInUse || !m.IsTimerExpired(now) {
		return nil, ErrNotExpired
	}

	var events []notification.Event
	if m.CurrentUserID != nil {
		events = append(events, notification.Event{
			UserID:    *m.CurrentUserID,
			MachineID: m.ID,
			Category:  model.NotificationWashComplete,
			Message:   fmt.Sprintf("Your wash on %q is complete!", m.Name),
		})
	}

	m.ClearOccupancy()
	m.Status = model.StatusAvailable

	if head, ok := m.PopQueueHead(); ok {
		events = append(events, notification.Event{
			UserID:    head.UserID,
			MachineID: m.ID,
			Category:  model.NotificationYourTurn,
			Message:   fmt.Sprintf("Great news! Machine %q is now available. It's your turn!", m.Name),
		})
	}
	return events, nil
}

// SetMaintenance takes m out of service. An active session is dropped without
// notifying the occupant; the queue is kept.
func SetMaintenance(m *model.Machine) {
	m.ClearOccupancy()
	m.Status = model.StatusMaintenance
}

// ClearMaintenance puts a machine under maintenance back into service.
func ClearMaintenance(m *model.Machine) {
	if m.Status == model.StatusMaintenance {
		m.Status = model.StatusAvailable
	}
}

// Override force-releases m regardless of state. Unlike Release it does not
// promote the queue.
// TODO: confirm with product whether override should notify the queue head like Release does.
func Override(m *model.Machine) {
	m.ClearOccupancy()
	m.Status = model.StatusAvailable
}

// SetStatus applies an admin status change. InUse cannot be set directly
// since a session needs an occupant and a timer.
func SetStatus(m *model.Machine, status model.MachineStatus) error {
	switch status {
	case model.StatusMaintenance:
		SetMaintenance(m)
	case model.StatusAvailable:
		if m.Status == model.StatusMaintenance {
			ClearMaintenance(m)
		} else {
			Override(m)
		}
	case model.StatusInUse:
		return newError(CodeInvalidStatus, "Status InUse can only be set by occupying the machine")
	default:
		return ErrInvalidStatus
	}
	return nil
}

// JoinQueue appends id to m's wait list and returns the 1-based position.
func JoinQueue(m *model.Machine, scope []model.Machine, id Identity, now time.Time) (int, error) {
	if err := checkBranch(m, id); err != nil {
		return 0, err
	}
	if m.Status == model.StatusMaintenance {
		return 0, ErrMachineUnderMaintenance
	}
	if m.OccupiedBy(id.UserID) {
		return 0, ErrAlreadyOccupying
	}
	if other := occupyingOther(scope, m.ID, id.UserID); other != nil {
		return 0, newError(CodeAlreadyOccupyingElsewhere,
			"You are currently using %q. Please finish or release it before joining another queue.", other.Name)
	}
	if m.InQueue(id.UserID) {
		return 0, ErrAlreadyQueued
	}
	if other := queuedOther(scope, m.ID, id.UserID); other != nil {
		return 0, newError(CodeAlreadyQueuedElsewhere,
			"You are already in the queue for %q. Leave it before joining another.", other.Name)
	}

	return m.Enqueue(id.UserID, now)
}

// LeaveQueue removes id from m's wait list.
// Users already waiting may leave regardless of their current branch.
func LeaveQueue(m *model.Machine, id Identity) error {
	if m.RemoveFromQueue(id.UserID) {
		return nil
	}
	if err := checkBranch(m, id); err != nil {
		return err
	}
	return ErrNotInQueue
}
