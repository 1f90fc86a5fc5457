package store

import (
	"context"
	"fmt"
	"time"

	"washsync-backend/internal/model"
)

// machineStateColumns are the columns a state transition may change.
var machineStateColumns = []string{
	"status", "current_user_id", "timer_start", "timer_end", "duration", "queue", "version", "updated_at",
}

func (s *gormStore) GetMachine(ctx context.Context, id int64) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *gormStore) ListMachines(ctx context.Context, filter MachineFilter) ([]model.Machine, error) {
	q := s.db.WithContext(ctx).Order("name ASC").Order("id ASC")
	if filter.BranchID != nil {
		q = q.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var machines []model.Machine
	if err := q.Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

// ListExpiredMachineIDs returns the machines still InUse whose timer ended at or before now.
func (s *gormStore) ListExpiredMachineIDs(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&model.Machine{}).
		Where("status = ? AND timer_end <= ?", model.StatusInUse, now).
		Order("timer_end ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query expired machines: %w", err)
	}
	return ids, nil
}

func (s *gormStore) MachineNameTaken(ctx context.Context, branchID int64, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Machine{}).
		Where("branch_id = ? AND name = ?", branchID, name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check machine name: %w", err)
	}
	return count > 0, nil
}

// CreateMachine inserts a new machine. New machines are always Available with an empty queue.
func (s *gormStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	m.Status = model.StatusAvailable
	m.ClearOccupancy()
	m.Queue = []model.QueueEntry{}
	m.Version = 0
	if err := s.db.WithContext(ctx).Omit("Branch").Create(m).Error; err != nil {
		return fmt.Errorf("failed to create machine %q: %w", m.Name, err)
	}
	return nil
}

// SaveMachine writes the state columns of m if, and only if, the stored
// version still equals m.Version. On success m.Version is advanced; on a
// version mismatch ErrConflict is returned and m is left as it was.
func (s *gormStore) SaveMachine(ctx context.Context, m *model.Machine) error {
	if m.Queue == nil {
		m.Queue = []model.QueueEntry{}
	}
	prev := m.Version
	m.Version = prev + 1

	res := s.db.WithContext(ctx).
		Model(m).
		Where("version = ?", prev).
		Select(machineStateColumns).
		Updates(m)
	if res.Error != nil {
		m.Version = prev
		return fmt.Errorf("failed to save machine %d: %w", m.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		m.Version = prev
		return ErrConflict
	}
	return nil
}

func (s *gormStore) DeleteMachine(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Machine{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete machine %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
