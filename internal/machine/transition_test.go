package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"washsync-backend/internal/model"
)

var (
	t0      = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	branchA = int64(1)
	branchB = int64(2)
)

func member(uid int64) Identity { return Identity{UserID: uid, BranchID: &branchA} }

func admin(uid int64) Identity { return Identity{UserID: uid, IsAdmin: true} }

func available(id int64, name string) *model.Machine {
	return &model.Machine{ID: id, BranchID: branchA, Name: name, Status: model.StatusAvailable}
}

func TestOccupy(t *testing.T) {
	m := available(1, "W1")
	require.NoError(t, Occupy(m, []model.Machine{*m}, member(10), 30, t0))

	assert.Equal(t, model.StatusInUse, m.Status)
	assert.Equal(t, int64(10), *m.CurrentUserID)
	assert.Equal(t, 30, *m.Duration)
	assert.Equal(t, 30*time.Minute, m.TimerEnd.Sub(*m.TimerStart))
	assert.NoError(t, m.Validate())
}

func TestOccupy_Rejections(t *testing.T) {
	inUse := available(2, "W2")
	inUse.StartOccupancy(20, t0, 30)

	maintenance := available(3, "W3")
	maintenance.Status = model.StatusMaintenance

	queuedFor := available(4, "W4")
	queuedFor.Queue = []model.QueueEntry{{UserID: 10, JoinedAt: t0}}

	otherBranch := available(5, "W5")
	otherBranch.BranchID = branchB

	occupiedBy10 := available(6, "W6")
	occupiedBy10.StartOccupancy(10, t0, 15)

	testCases := []struct {
		name    string
		machine *model.Machine
		scope   []model.Machine
		id      Identity
		minutes int
		want    error
	}{
		{name: "zero minutes", machine: available(1, "W1"), id: member(10), minutes: 0, want: ErrInvalidDuration},
		{name: "over limit", machine: available(1, "W1"), id: member(10), minutes: 181, want: ErrInvalidDuration},
		{name: "in use", machine: inUse, id: member(10), minutes: 10, want: ErrMachineUnavailable},
		{name: "maintenance", machine: maintenance, id: member(10), minutes: 10, want: ErrMachineUnderMaintenance},
		{name: "other branch", machine: otherBranch, id: member(10), minutes: 10, want: ErrBranchMismatch},
		{name: "unassigned user", machine: available(1, "W1"), id: Identity{UserID: 10}, minutes: 10, want: ErrBranchUnassigned},
		{name: "occupying elsewhere", machine: available(1, "W1"), scope: []model.Machine{*occupiedBy10}, id: member(10), minutes: 10, want: ErrAlreadyOccupyingElsewhere},
		{name: "queued elsewhere", machine: available(1, "W1"), scope: []model.Machine{*queuedFor}, id: member(10), minutes: 10, want: ErrAlreadyQueuedElsewhere},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := *tc.machine
			err := Occupy(tc.machine, tc.scope, tc.id, tc.minutes, t0)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, before.Status, tc.machine.Status, "no state change on failure")
		})
	}
}

func TestOccupy_ElsewhereMessageNamesMachine(t *testing.T) {
	other := available(6, "Dryer 2")
	other.StartOccupancy(10, t0, 15)

	err := Occupy(available(1, "W1"), []model.Machine{*other}, member(10), 10, t0)
	require.Error(t, err)
	assert.Contains(t, err.(*Error).Message, `"Dryer 2"`)
}

func TestOccupy_ConsumesOwnQueueEntry(t *testing.T) {
	m := available(1, "W1")
	m.Queue = []model.QueueEntry{{UserID: 10, JoinedAt: t0}, {UserID: 11, JoinedAt: t0}}

	require.NoError(t, Occupy(m, []model.Machine{*m}, member(10), 20, t0))
	assert.False(t, m.InQueue(10))
	assert.Equal(t, 1, m.QueuePosition(11))
	assert.NoError(t, m.Validate())
}

func TestRelease_PromotesHead(t *testing.T) {
	m := available(1, "W1")
	m.StartOccupancy(10, t0, 30)
	m.Queue = []model.QueueEntry{{UserID: 20, JoinedAt: t0}, {UserID: 30, JoinedAt: t0.Add(time.Second)}}

	events, err := Release(m, member(10))
	require.NoError(t, err)

	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.NoError(t, m.Validate())
	require.Len(t, events, 1)
	assert.Equal(t, int64(20), events[0].UserID)
	assert.Equal(t, model.NotificationYourTurn, events[0].Category)
	assert.Equal(t, `Machine "W1" is now available! It's your turn.`, events[0].Message)
	assert.False(t, m.InQueue(20))
	assert.Equal(t, 1, m.QueuePosition(30))
}

func TestRelease_Rejections(t *testing.T) {
	idle := available(1, "W1")
	_, err := Release(idle, member(10))
	assert.ErrorIs(t, err, ErrNotOccupied)

	busy := available(2, "W2")
	busy.StartOccupancy(10, t0, 30)
	_, err = Release(busy, member(11))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, model.StatusInUse, busy.Status)

	events, err := Release(busy, admin(99))
	assert.NoError(t, err, "admins may release any machine")
	assert.Empty(t, events)
}

func TestExpire(t *testing.T) {
	m := available(1, "W1")
	m.StartOccupancy(10, t0, 1)
	m.Queue = []model.QueueEntry{{UserID: 20, JoinedAt: t0}}

	_, err := Expire(m, t0.Add(30*time.Second))
	assert.ErrorIs(t, err, ErrNotExpired)
	assert.Equal(t, model.StatusInUse, m.Status)

	events, err := Expire(m, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.NoError(t, m.Validate())
	assert.Empty(t, m.Queue)

	require.Len(t, events, 2)
	assert.Equal(t, int64(10), events[0].UserID)
	assert.Equal(t, model.NotificationWashComplete, events[0].Category)
	assert.Equal(t, `Your wash on "W1" is complete!`, events[0].Message)
	assert.Equal(t, int64(20), events[1].UserID)
	assert.Equal(t, model.NotificationYourTurn, events[1].Category)

	_, err = Expire(m, t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotExpired, "expiring twice is a no-op")
}

func TestSetMaintenance_DropsSessionKeepsQueue(t *testing.T) {
	m := available(1, "W1")
	m.StartOccupancy(10, t0, 30)
	m.Queue = []model.QueueEntry{{UserID: 20, JoinedAt: t0}}

	require.NoError(t, SetStatus(m, model.StatusMaintenance))
	assert.Equal(t, model.StatusMaintenance, m.Status)
	assert.Nil(t, m.CurrentUserID)
	assert.Len(t, m.Queue, 1)
	assert.NoError(t, m.Validate())

	require.NoError(t, SetStatus(m, model.StatusAvailable))
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Len(t, m.Queue, 1)
}

func TestSetStatus_AvailableFromInUseOverrides(t *testing.T) {
	m := available(1, "W1")
	m.StartOccupancy(10, t0, 30)
	m.Queue = []model.QueueEntry{{UserID: 20, JoinedAt: t0}}

	require.NoError(t, SetStatus(m, model.StatusAvailable))
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.NoError(t, m.Validate())
	assert.Len(t, m.Queue, 1, "override does not promote the queue")

	assert.ErrorIs(t, SetStatus(m, model.StatusInUse), ErrInvalidStatus)
	assert.ErrorIs(t, SetStatus(m, "Broken"), ErrInvalidStatus)
}

func TestOverride_DoesNotPromote(t *testing.T) {
	m := available(1, "W1")
	m.StartOccupancy(10, t0, 30)
	m.Queue = []model.QueueEntry{{UserID: 20, JoinedAt: t0}}

	Override(m)
	assert.Equal(t, model.StatusAvailable, m.Status)
	assert.Nil(t, m.TimerEnd)
	assert.Equal(t, 1, m.QueuePosition(20))
}

func TestJoinQueue(t *testing.T) {
	m := available(1, "W1")
	m.StartOccupancy(10, t0, 30)

	pos, err := JoinQueue(m, nil, member(20), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = JoinQueue(m, nil, member(30), t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	_, err = JoinQueue(m, nil, member(20), t0)
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	_, err = JoinQueue(m, nil, member(10), t0)
	assert.ErrorIs(t, err, ErrAlreadyOccupying)

	assert.NoError(t, m.Validate())
}

func TestJoinQueue_Rejections(t *testing.T) {
	maintenance := available(1, "W1")
	maintenance.Status = model.StatusMaintenance
	_, err := JoinQueue(maintenance, nil, member(10), t0)
	assert.ErrorIs(t, err, ErrMachineUnderMaintenance)

	busyElsewhere := available(2, "W2")
	busyElsewhere.StartOccupancy(10, t0, 30)
	_, err = JoinQueue(available(1, "W1"), []model.Machine{*busyElsewhere}, member(10), t0)
	assert.ErrorIs(t, err, ErrAlreadyOccupyingElsewhere)

	queuedElsewhere := available(3, "W3")
	queuedElsewhere.Queue = []model.QueueEntry{{UserID: 10, JoinedAt: t0}}
	_, err = JoinQueue(available(1, "W1"), []model.Machine{*queuedElsewhere}, member(10), t0)
	assert.ErrorIs(t, err, ErrAlreadyQueuedElsewhere)

	foreign := available(4, "W4")
	foreign.BranchID = branchB
	_, err = JoinQueue(foreign, nil, member(10), t0)
	assert.ErrorIs(t, err, ErrBranchMismatch)
}

func TestLeaveQueue(t *testing.T) {
	m := available(1, "W1")
	m.Queue = []model.QueueEntry{{UserID: 20, JoinedAt: t0}, {UserID: 30, JoinedAt: t0}, {UserID: 40, JoinedAt: t0}}

	require.NoError(t, LeaveQueue(m, member(30)))
	assert.Equal(t, 1, m.QueuePosition(20))
	assert.Equal(t, 2, m.QueuePosition(40))

	assert.ErrorIs(t, LeaveQueue(m, member(30)), ErrNotInQueue)
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := newError(CodeAlreadyQueuedElsewhere, "custom %s", "text")
	assert.ErrorIs(t, err, ErrAlreadyQueuedElsewhere)
	assert.NotErrorIs(t, err, ErrAlreadyQueued)
	assert.Equal(t, "ALREADY_QUEUED_ELSEWHERE: custom text", err.Error())
}

func TestRelease_OccupantFromAnotherBranch(t *testing.T) {
	m := available(1, "W1")
	m.StartOccupancy(10, t0, 30)

	_, err := Release(m, Identity{UserID: 11, BranchID: &branchB})
	assert.ErrorIs(t, err, ErrBranchMismatch)

	_, err = Release(m, Identity{UserID: 10, BranchID: &branchB})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, m.Status)
}

func TestLeaveQueue_FromAnotherBranch(t *testing.T) {
	m := available(1, "W1")
	m.Queue = []model.QueueEntry{{UserID: 20, JoinedAt: t0}}

	assert.ErrorIs(t, LeaveQueue(m, Identity{UserID: 30, BranchID: &branchB}), ErrBranchMismatch)
	require.NoError(t, LeaveQueue(m, Identity{UserID: 20, BranchID: &branchB}))
	assert.Empty(t, m.Queue)
}

func TestOccupy_ScopeSpansBranches(t *testing.T) {
	elsewhere := available(2, "S1")
	elsewhere.BranchID = branchB
	elsewhere.StartOccupancy(10, t0, 30)

	err := Occupy(available(1, "W1"), []model.Machine{*elsewhere}, member(10), 10, t0)
	assert.ErrorIs(t, err, ErrAlreadyOccupyingElsewhere)
}
