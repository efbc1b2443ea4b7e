package models

import "time"

// Registration is an append-only record captured from the public sign-up form.
type Registration struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;index;not null" json:"name"`
	Email       string    `gorm:"size:255;index;not null" json:"email"`
	Affiliation string    `gorm:"size:255" json:"affiliation"`
	Text        string    `gorm:"type:text" json:"text"`
	Created     time.Time `gorm:"index;not null" json:"created"`
}
