package models

import "time"

// WaitlistEntry is one registered address. Rows are insert-only.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"size:254;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
}
