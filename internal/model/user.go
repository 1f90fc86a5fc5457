package model

import "time"

// User is the identity the booking core acts for. Credentials live with the
// external identity provider; only the fields the core consults are kept here.
type User struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	Email     string `gorm:"uniqueIndex;size:256;not null"`
	IsAdmin   bool   `gorm:"not null"`
	BranchID  *int64 `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Branch *Branch
}
