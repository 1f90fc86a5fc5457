package model

import "time"

// Branch represents a physical laundry site. Machines and non-admin users
// belong to exactly one branch.
type Branch struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:128;not null"`
	Location  string    `gorm:"size:256;not null"`
	Code      string    `gorm:"uniqueIndex;size:10;not null"`
	IsActive  bool      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
