package models

import "time"

// LoginSession binds an opaque GUID cookie to an admin login until Expiration.
// Rows are never updated; expired rows are removed by the session cleaner.
type LoginSession struct {
	Token      string    `gorm:"primaryKey;size:36" json:"token"`
	LoginID    uint      `gorm:"index;not null" json:"login_id"`
	Expiration time.Time `gorm:"index;not null" json:"expiration"`
	CreatedAt  time.Time `json:"created_at"`
}
