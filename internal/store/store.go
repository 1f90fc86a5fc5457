package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"washsync-backend/internal/model"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by SaveMachine when the record changed since it was read.
	ErrConflict = errors.New("machine was modified concurrently")
)

// MachineFilter narrows ListMachines. Zero fields do not filter.
type MachineFilter struct {
	BranchID *int64
	Status   model.MachineStatus
}

// Store defines the interface for all database operations.
type Store interface {
	Ping(ctx context.Context) error

	GetMachine(ctx context.Context, id int64) (*model.Machine, error)
	ListMachines(ctx context.Context, filter MachineFilter) ([]model.Machine, error)
	ListExpiredMachineIDs(ctx context.Context, now time.Time) ([]int64, error)
	MachineNameTaken(ctx context.Context, branchID int64, name string) (bool, error)
	CreateMachine(ctx context.Context, m *model.Machine) error
	SaveMachine(ctx context.Context, m *model.Machine) error
	DeleteMachine(ctx context.Context, id int64) error

	GetUser(ctx context.Context, id int64) (*model.User, error)
	UsersByID(ctx context.Context, ids []int64) (map[int64]model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	AssignUserBranch(ctx context.Context, userID int64, branchID *int64) error

	GetBranch(ctx context.Context, id int64) (*model.Branch, error)
	ListBranches(ctx context.Context, activeOnly bool) ([]model.Branch, error)
	CreateBranch(ctx context.Context, b *model.Branch) error

	CreateNotifications(ctx context.Context, ns []model.Notification) error

	SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	PutSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, userID int64, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Ping checks that the database connection is alive.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
