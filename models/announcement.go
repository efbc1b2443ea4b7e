package models

import "time"

// Announcement is a short post shown on the public home page.
type Announcement struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	AuthorID uint      `gorm:"index;not null" json:"author_id"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	Created  time.Time `gorm:"index;not null" json:"created"`
}
