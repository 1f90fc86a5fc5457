package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"washsync-backend/internal/model"
)

// CreateNotifications persists a batch of notifications in one transaction.
func (s *gormStore) CreateNotifications(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ns).Error; err != nil {
			return fmt.Errorf("failed to create %d notifications: %w", len(ns), err)
		}
		return nil
	})
}

func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for user %d: %w", userID, err)
	}
	return subs, nil
}

// PutSubscription creates a subscription or rebinds an existing endpoint to sub.UserID.
func (s *gormStore) PutSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes an endpoint. A userID of 0 deletes regardless of owner.
func (s *gormStore) DeleteSubscription(ctx context.Context, userID int64, endpoint string) error {
	q := s.db.WithContext(ctx).Where("endpoint = ?", endpoint)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Delete(&model.PushSubscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
