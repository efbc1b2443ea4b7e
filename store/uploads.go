package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gomc/website/listing"
	"github.com/gomc/website/models"
)

// ArtifactKind names one of the two stored renditions of an upload.
type ArtifactKind string

const (
	ArtifactPdf     ArtifactKind = "Pdf"
	ArtifactHtmlZip ArtifactKind = "HtmlZip"
)

// ErrUnknownArtifact is returned for an artifact kind outside Pdf and HtmlZip.
var ErrUnknownArtifact = errors.New("unknown artifact kind")

// ParseArtifactKind accepts "Pdf" or "HtmlZip" and their numeric forms 0 and 1.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch s {
	case "Pdf", "pdf", "0":
		return ArtifactPdf, nil
	case "HtmlZip", "htmlzip", "html", "1":
		return ArtifactHtmlZip, nil
	}
	return "", ErrUnknownArtifact
}

func (k ArtifactKind) column() (string, error) {
	switch k {
	case ArtifactPdf:
		return "pdf", nil
	case ArtifactHtmlZip:
		return "html_zip", nil
	}
	return "", ErrUnknownArtifact
}

// Filename is the download name of the artifact.
func (k ArtifactKind) Filename() string {
	if k == ArtifactHtmlZip {
		return "output.zip"
	}
	return "output.pdf"
}

// UploadItem is the catalog projection of an upload, without blobs.
type UploadItem struct {
	ID        uint      `json:"id"`
	AuthorID  uint      `json:"author_id"`
	Version   string    `json:"version"`
	Created   time.Time `json:"created"`
	Published bool      `json:"published"`
}

var catalogColumns = []string{"id", "author_id", "version", "created", "published"}

// PublishResult is the outcome of Publish.
type PublishResult int

const (
	PublishSuccess PublishResult = iota
	PublishNotFound
)

func (r PublishResult) String() string {
	if r == PublishNotFound {
		return "NotFound"
	}
	return "Success"
}

// MarshalJSON renders the result name.
func (r PublishResult) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UploadStore persists converted LaTeX documents.
type UploadStore struct {
	db *gorm.DB
}

// NewUploadStore creates an UploadStore.
func NewUploadStore(db *gorm.DB) *UploadStore {
	return &UploadStore{db: db}
}

// Save inserts a new unpublished upload and fills in its ID.
func (s *UploadStore) Save(ctx context.Context, u *models.LatexUpload) error {
	u.ID = 0
	u.Published = false
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	return nil
}

// Catalog lists uploads newest first without loading the artifacts.
func (s *UploadStore) Catalog(ctx context.Context, page listing.Page) ([]UploadItem, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.LatexUpload{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count uploads: %w", err)
	}
	items := []UploadItem{}
	err := s.db.WithContext(ctx).
		Model(&models.LatexUpload{}).
		Select(catalogColumns).
		Clauses(newestFirst()).
		Scopes(page.Scope()).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("catalog uploads: %w", err)
	}
	return items, total, nil
}

// Artifact returns one rendition of upload id.
func (s *UploadStore) Artifact(ctx context.Context, id uint, kind ArtifactKind) ([]byte, error) {
	col, err := kind.column()
	if err != nil {
		return nil, err
	}
	var u models.LatexUpload
	err = s.db.WithContext(ctx).Select("id", col).Where("id = ?", id).Take(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	if kind == ArtifactHtmlZip {
		return u.HtmlZip, nil
	}
	return u.Pdf, nil
}

// PublishedArtifact returns one rendition of the currently published upload.
func (s *UploadStore) PublishedArtifact(ctx context.Context, kind ArtifactKind) ([]byte, error) {
	var u models.LatexUpload
	err := s.db.WithContext(ctx).
		Select("id").
		Where("published = ?", true).
		Take(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return s.Artifact(ctx, u.ID, kind)
}

// Published returns the catalog entry of the live upload.
func (s *UploadStore) Published(ctx context.Context) (UploadItem, error) {
	var item UploadItem
	err := s.db.WithContext(ctx).
		Model(&models.LatexUpload{}).
		Select(catalogColumns).
		Where("published = ?", true).
		Take(&item).Error
	if err != nil {
		return UploadItem{}, notFound(err)
	}
	return item, nil
}

// Publish makes id the single published upload. Every row is rewritten by one
// statement inside a transaction, so concurrent publishers serialize on the
// row locks and the last commit wins.
func (s *UploadStore) Publish(ctx context.Context, id uint) (PublishResult, error) {
	result := PublishSuccess
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.LatexUpload{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			result = PublishNotFound
			return nil
		}
		return tx.Model(&models.LatexUpload{}).
			Where("1 = 1").
			Update("published", gorm.Expr("CASE WHEN id = ? THEN ? ELSE ? END", id, true, false)).
			Error
	})
	if err != nil {
		return PublishNotFound, fmt.Errorf("publish upload %d: %w", id, err)
	}
	return result, nil
}
