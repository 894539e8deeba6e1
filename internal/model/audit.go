package model

import "time"

// AuditEntry records one operator action against the dashboard.
type AuditEntry struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Action    string    `gorm:"index;not null;size:64"`
	Detail    string    `gorm:"size:2000"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
