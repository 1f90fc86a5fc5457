package store

import (
	"context"
	"fmt"

	"washsync-backend/internal/model"
)

func (s *gormStore) GetBranch(ctx context.Context, id int64) (*model.Branch, error) {
	var b model.Branch
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *gormStore) ListBranches(ctx context.Context, activeOnly bool) ([]model.Branch, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var branches []model.Branch
	if err := q.Find(&branches).Error; err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

func (s *gormStore) CreateBranch(ctx context.Context, b *model.Branch) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("failed to create branch %q: %w", b.Name, err)
	}
	return nil
}
