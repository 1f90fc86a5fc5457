// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"washsync-backend/config"
	"washsync-backend/internal/db"
	"washsync-backend/internal/model"
	"washsync-backend/internal/store"
)

var dbSeq atomic.Int64

// NewDB opens a migrated in-memory sqlite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	gormDB, err := db.Init(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return gormDB
}

// NewStore returns a store over a fresh database.
func NewStore(t testing.TB) store.Store {
	t.Helper()
	return store.NewGormStore(NewDB(t))
}

// Branch inserts an active branch.
func Branch(t testing.TB, s store.Store, code string) model.Branch {
	t.Helper()
	b := model.Branch{Name: "Branch " + code, Location: "Campus " + code, Code: code, IsActive: true}
	require.NoError(t, s.CreateBranch(context.Background(), &b))
	return b
}

// User inserts a user. A zero branchID leaves the user unassigned.
func User(t testing.TB, s store.Store, name string, branchID int64, admin bool) model.User {
	t.Helper()
	u := model.User{Name: name, Email: strings.ToLower(name) + "@example.com", IsAdmin: admin}
	if branchID != 0 {
		u.BranchID = &branchID
	}
	require.NoError(t, s.CreateUser(context.Background(), &u))
	return u
}

// Machine inserts an Available machine in branchID.
func Machine(t testing.TB, s store.Store, branchID int64, name string) model.Machine {
	t.Helper()
	m := model.Machine{BranchID: branchID, Name: name}
	require.NoError(t, s.CreateMachine(context.Background(), &m))
	return m
}
