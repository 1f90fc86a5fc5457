package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"washsync-backend/internal/model"
	"washsync-backend/internal/store"
	"washsync-backend/internal/testutil"
)

func TestGormStore_CreateMachineStartsAvailable(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	b := testutil.Branch(t, s, "NB")

	m := model.Machine{BranchID: b.ID, Name: "W1", Status: model.StatusInUse, Queue: []model.QueueEntry{{UserID: 1}}}
	require.NoError(t, s.CreateMachine(ctx, &m))

	got, err := s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, got.Status)
	assert.Empty(t, got.Queue)
	assert.Nil(t, got.CurrentUserID)
	assert.NoError(t, got.Validate())

	taken, err := s.MachineNameTaken(ctx, b.ID, "W1")
	require.NoError(t, err)
	assert.True(t, taken)

	other := testutil.Branch(t, s, "SB")
	taken, err = s.MachineNameTaken(ctx, other.ID, "W1")
	require.NoError(t, err)
	assert.False(t, taken, "names are scoped to a branch")
}

func TestGormStore_SaveMachineRoundTripsQueue(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	b := testutil.Branch(t, s, "NB")
	m := testutil.Machine(t, s, b.ID, "W1")

	now := time.Now().UTC().Truncate(time.Second)
	m.StartOccupancy(1, now, 45)
	_, err := m.Enqueue(2, now)
	require.NoError(t, err)
	_, err = m.Enqueue(3, now.Add(time.Second))
	require.NoError(t, err)
	require.NoError(t, s.SaveMachine(ctx, &m))
	assert.Equal(t, int64(1), m.Version)

	got, err := s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInUse, got.Status)
	assert.Equal(t, int64(1), *got.CurrentUserID)
	assert.Equal(t, 45, *got.Duration)
	assert.True(t, got.TimerEnd.Equal(now.Add(45*time.Minute)))
	require.Len(t, got.Queue, 2)
	assert.Equal(t, int64(2), got.Queue[0].UserID)
	assert.Equal(t, int64(3), got.Queue[1].UserID)

	got.ClearOccupancy()
	got.Status = model.StatusAvailable
	require.NoError(t, s.SaveMachine(ctx, got))

	cleared, err := s.GetMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.CurrentUserID)
	assert.Nil(t, cleared.TimerStart)
	assert.Nil(t, cleared.TimerEnd)
	assert.Nil(t, cleared.Duration)
	assert.NoError(t, cleared.Validate())
}

func TestGormStore_SaveMachineRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	b := testutil.Branch(t, s, "NB")
	created := testutil.Machine(t, s, b.ID, "W1")

	first, err := s.GetMachine(ctx, created.ID)
	require.NoError(t, err)
	second, err := s.GetMachine(ctx, created.ID)
	require.NoError(t, err)

	first.StartOccupancy(1, time.Now(), 10)
	require.NoError(t, s.SaveMachine(ctx, first))

	second.StartOccupancy(2, time.Now(), 10)
	err = s.SaveMachine(ctx, second)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, int64(0), second.Version, "version is restored on conflict")

	got, err := s.GetMachine(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), *got.CurrentUserID, "the loser must not overwrite")
}

func TestGormStore_ListExpiredMachineIDs(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	b := testutil.Branch(t, s, "NB")
	now := time.Now().UTC()

	expired := testutil.Machine(t, s, b.ID, "W1")
	expired.StartOccupancy(1, now.Add(-time.Hour), 30)
	require.NoError(t, s.SaveMachine(ctx, &expired))

	running := testutil.Machine(t, s, b.ID, "W2")
	running.StartOccupancy(2, now, 30)
	require.NoError(t, s.SaveMachine(ctx, &running))

	testutil.Machine(t, s, b.ID, "W3")

	ids, err := s.ListExpiredMachineIDs(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []int64{expired.ID}, ids)
}

func TestGormStore_ListMachinesFilters(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	north := testutil.Branch(t, s, "NB")
	south := testutil.Branch(t, s, "SB")
	testutil.Machine(t, s, north.ID, "W2")
	testutil.Machine(t, s, north.ID, "W1")
	testutil.Machine(t, s, south.ID, "W9")

	all, err := s.ListMachines(ctx, store.MachineFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	scoped, err := s.ListMachines(ctx, store.MachineFilter{BranchID: &north.ID})
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	assert.Equal(t, "W1", scoped[0].Name, "sorted by name")
	assert.Equal(t, "W2", scoped[1].Name)

	inUse, err := s.ListMachines(ctx, store.MachineFilter{Status: model.StatusInUse})
	require.NoError(t, err)
	assert.Empty(t, inUse)
}

func TestGormStore_DeleteMachine(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	b := testutil.Branch(t, s, "NB")
	m := testutil.Machine(t, s, b.ID, "W1")

	require.NoError(t, s.DeleteMachine(ctx, m.ID))
	assert.ErrorIs(t, s.DeleteMachine(ctx, m.ID), store.ErrNotFound)

	_, err := s.GetMachine(ctx, m.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGormStore_UsersAndBranches(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	b := testutil.Branch(t, s, "NB")
	alice := testutil.User(t, s, "Alice", b.ID, false)
	bob := testutil.User(t, s, "Bob", 0, false)

	users, err := s.UsersByID(ctx, []int64{alice.ID, bob.ID, 999})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "Alice", users[alice.ID].Name)

	require.NoError(t, s.AssignUserBranch(ctx, bob.ID, &b.ID))
	got, err := s.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BranchID)
	assert.Equal(t, b.ID, *got.BranchID)

	require.NoError(t, s.AssignUserBranch(ctx, bob.ID, nil))
	got, err = s.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BranchID)

	assert.ErrorIs(t, s.AssignUserBranch(ctx, 999, &b.ID), store.ErrNotFound)

	inactive := model.Branch{Name: "Closed", Location: "Nowhere", Code: "CL", IsActive: false}
	require.NoError(t, s.CreateBranch(ctx, &inactive))
	active, err := s.ListBranches(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "NB", active[0].Code)
}

func TestGormStore_Subscriptions(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	sub := model.PushSubscription{Endpoint: "https://push.example/1", UserID: 1, P256DH: "k", Auth: "a"}
	require.NoError(t, s.PutSubscription(ctx, &sub))

	moved := model.PushSubscription{Endpoint: "https://push.example/1", UserID: 2, P256DH: "k2", Auth: "a2"}
	require.NoError(t, s.PutSubscription(ctx, &moved))

	subs, err := s.SubscriptionsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, subs)

	subs, err = s.SubscriptionsForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "k2", subs[0].P256DH)

	assert.ErrorIs(t, s.DeleteSubscription(ctx, 1, moved.Endpoint), store.ErrNotFound)
	assert.NoError(t, s.DeleteSubscription(ctx, 2, moved.Endpoint))
}

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_SaveMachineGuardsOnVersion(t *testing.T) {
	testCases := []struct {
		name         string
		rowsAffected int64
		expectedErr  error
		wantVersion  int64
	}{
		{name: "version matches", rowsAffected: 1, expectedErr: nil, wantVersion: 4},
		{name: "version moved on", rowsAffected: 0, expectedErr: store.ErrConflict, wantVersion: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			s := store.NewGormStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "machines" SET .*"status".*"queue".*"version".*WHERE .*version = \$`).
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))
			mock.ExpectCommit()

			m := &model.Machine{ID: 42, BranchID: 1, Name: "W1", Status: model.StatusAvailable, Version: 3}
			err := s.SaveMachine(context.Background(), m)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantVersion, m.Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
