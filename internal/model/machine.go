package model

import (
	"fmt"
	"time"
)

// MachineStatus is the closed set of states a machine can be in.
type MachineStatus string

const (
	StatusAvailable   MachineStatus = "Available"
	StatusInUse       MachineStatus = "InUse"
	StatusMaintenance MachineStatus = "Maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s MachineStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance:
		return true
	}
	return false
}

// QueueEntry is one waiting user. Slice order is wait order.
type QueueEntry struct {
	UserID   int64     `json:"user"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Machine represents a washing machine, its current session and its wait list.
//
// The occupancy fields (CurrentUserID, TimerStart, TimerEnd, Duration) are
// either all nil or all set, and they are set only while Status is InUse.
type Machine struct {
	ID            int64         `gorm:"primaryKey"`
	BranchID      int64         `gorm:"not null;uniqueIndex:idx_machines_branch_name"`
	Name          string        `gorm:"size:128;not null;uniqueIndex:idx_machines_branch_name"`
	Status        MachineStatus `gorm:"size:16;not null;index"`
	CurrentUserID *int64        `gorm:"index"`
	TimerStart    *time.Time
	TimerEnd      *time.Time `gorm:"index"`
	Duration      *int
	Queue         []QueueEntry `gorm:"serializer:json"`
	Version       int64        `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Associations
	Branch *Branch
}

// IsTimerExpired reports whether the session timer has run out at now.
func (m *Machine) IsTimerExpired(now time.Time) bool {
	if m.TimerEnd == nil {
		return false
	}
	return !now.Before(*m.TimerEnd)
}

// RemainingSeconds returns the whole seconds left on the timer, never negative.
func (m *Machine) RemainingSeconds(now time.Time) int {
	if m.TimerEnd == nil {
		return 0
	}
	remaining := int(m.TimerEnd.Sub(now) / time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OccupiedBy reports whether userID is running the current session.
func (m *Machine) OccupiedBy(userID int64) bool {
	return m.Status == StatusInUse && m.CurrentUserID != nil && *m.CurrentUserID == userID
}

// QueuePosition returns the 1-based position of userID, or 0 when absent.
func (m *Machine) QueuePosition(userID int64) int {
	for i, e := range m.Queue {
		if e.UserID == userID {
			return i + 1
		}
	}
	return 0
}

// InQueue reports whether userID is waiting for this machine.
func (m *Machine) InQueue(userID int64) bool {
	return m.QueuePosition(userID) > 0
}

// StartOccupancy sets every occupancy field together and marks the machine InUse.
func (m *Machine) StartOccupancy(userID int64, now time.Time, minutes int) {
	start := now
	end := start.Add(time.Duration(minutes) * time.Minute)
	uid := userID
	d := minutes

	m.Status = StatusInUse
	m.CurrentUserID = &uid
	m.TimerStart = &start
	m.TimerEnd = &end
	m.Duration = &d
}

// ClearOccupancy nils every occupancy field. Status is left to the caller.
func (m *Machine) ClearOccupancy() {
	m.CurrentUserID = nil
	m.TimerStart = nil
	m.TimerEnd = nil
	m.Duration = nil
}

// Enqueue appends userID to the wait list and returns its position.
func (m *Machine) Enqueue(userID int64, now time.Time) (int, error) {
	if m.InQueue(userID) {
		return 0, fmt.Errorf("user %d already queued for machine %d", userID, m.ID)
	}
	m.Queue = append(m.Queue, QueueEntry{UserID: userID, JoinedAt: now})
	return len(m.Queue), nil
}

// RemoveFromQueue drops userID from the wait list, keeping the order of the
// remaining entries. It reports whether an entry was removed.
func (m *Machine) RemoveFromQueue(userID int64) bool {
	kept := make([]QueueEntry, 0, len(m.Queue))
	removed := false
	for _, e := range m.Queue {
		if e.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	m.Queue = kept
	return removed
}

// PopQueueHead removes and returns the first waiting user.
func (m *Machine) PopQueueHead() (QueueEntry, bool) {
	if len(m.Queue) == 0 {
		return QueueEntry{}, false
	}
	head := m.Queue[0]
	m.Queue = append([]QueueEntry(nil), m.Queue[1:]...)
	return head, true
}

// Validate checks the record invariants.
func (m *Machine) Validate() error {
	if !m.Status.Valid() {
		return fmt.Errorf("machine %d: invalid status %q", m.ID, m.Status)
	}

	set := 0
	for _, present := range []bool{m.CurrentUserID != nil, m.TimerStart != nil, m.TimerEnd != nil, m.Duration != nil} {
		if present {
			set++
		}
	}
	switch {
	case set != 0 && set != 4:
		return fmt.Errorf("machine %d: occupancy fields partially set", m.ID)
	case set == 4 && m.Status != StatusInUse:
		return fmt.Errorf("machine %d: occupancy set while %s", m.ID, m.Status)
	case set == 0 && m.Status == StatusInUse:
		return fmt.Errorf("machine %d: InUse without occupant", m.ID)
	}

	if set == 4 {
		if !m.TimerStart.Add(time.Duration(*m.Duration) * time.Minute).Equal(*m.TimerEnd) {
			return fmt.Errorf("machine %d: timer end does not match duration", m.ID)
		}
	}

	seen := make(map[int64]struct{}, len(m.Queue))
	for _, e := range m.Queue {
		if _, dup := seen[e.UserID]; dup {
			return fmt.Errorf("machine %d: user %d queued twice", m.ID, e.UserID)
		}
		seen[e.UserID] = struct{}{}
		if m.CurrentUserID != nil && *m.CurrentUserID == e.UserID {
			return fmt.Errorf("machine %d: occupant %d is also queued", m.ID, e.UserID)
		}
	}
	return nil
}
