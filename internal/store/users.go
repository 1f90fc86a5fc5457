package store

import (
	"context"
	"fmt"

	"washsync-backend/internal/model"
)

func (s *gormStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UsersByID loads the given users in one query. Unknown IDs are absent from the result.
func (s *gormStore) UsersByID(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	result := make(map[int64]model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// ListUsers returns every user, newest first, with their branch loaded.
func (s *gormStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Preload("Branch").Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Omit("Branch").Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", u.Email, err)
	}
	return nil
}

// AssignUserBranch moves a user to branchID, or unassigns them when branchID is nil.
func (s *gormStore) AssignUserBranch(ctx context.Context, userID int64, branchID *int64) error {
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("branch_id", branchID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign branch for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
