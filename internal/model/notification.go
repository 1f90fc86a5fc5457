package model

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationWashComplete NotificationType = "wash_complete"
	NotificationYourTurn     NotificationType = "your_turn"
	NotificationInfo         NotificationType = "info"
)

// Notification is a persisted message addressed to one user.
type Notification struct {
	ID        int64            `gorm:"primaryKey"`
	UserID    int64            `gorm:"not null;index:idx_notifications_user_created,priority:1"`
	MachineID *int64           `gorm:"index"`
	Message   string           `gorm:"not null"`
	Type      NotificationType `gorm:"size:32;not null"`
	Read      bool             `gorm:"not null"`
	CreatedAt time.Time        `gorm:"not null;index:idx_notifications_user_created,priority:2,sort:desc"`
}
