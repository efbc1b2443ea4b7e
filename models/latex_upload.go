package models

import "time"

// LatexUpload stores the PDF and zipped HTML rendition of one uploaded LaTeX
// document. At most one row has Published set.
type LatexUpload struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Version   string    `gorm:"size:64;not null" json:"version"`
	Pdf       []byte    `json:"-"`
	HtmlZip   []byte    `json:"-"`
	Created   time.Time `gorm:"index;not null" json:"created"`
	Published bool      `gorm:"index;not null;default:false" json:"published"`
}
