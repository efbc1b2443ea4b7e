package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gomc/website/listing"
	"github.com/gomc/website/models"
	"github.com/gomc/website/utils"
)

const (
	feedCachePrefix = "cache:announcements:"
	feedCacheTTL    = time.Hour
)

var announcementPolicy = bluemonday.UGCPolicy()

// FeedItem is the public projection of an announcement.
type FeedItem struct {
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

// AnnouncementStore manages announcement rows.
type AnnouncementStore struct {
	db  *gorm.DB
	now Clock
}

// NewAnnouncementStore creates an AnnouncementStore; a nil clock uses time.Now.
func NewAnnouncementStore(db *gorm.DB, now Clock) *AnnouncementStore {
	return &AnnouncementStore{db: db, now: clockOrNow(now)}
}

func cleanContent(content string) string {
	return strings.TrimSpace(announcementPolicy.Sanitize(content))
}

// Create stores a sanitized announcement authored by authorID.
func (s *AnnouncementStore) Create(ctx context.Context, content string, authorID uint) (models.Announcement, error) {
	content = cleanContent(content)
	if content == "" {
		return models.Announcement{}, ErrMissingContent
	}
	a := models.Announcement{
		AuthorID: authorID,
		Content:  content,
		Created:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return models.Announcement{}, fmt.Errorf("create announcement: %w", err)
	}
	utils.InvalidateByPrefix(ctx, feedCachePrefix)
	return a, nil
}

// Edit replaces the content of announcement id. It returns ErrNotFound when
// no row matched.
func (s *AnnouncementStore) Edit(ctx context.Context, id uint, content string) error {
	content = cleanContent(content)
	if content == "" {
		return ErrMissingContent
	}
	res := s.db.WithContext(ctx).
		Model(&models.Announcement{}).
		Where("id = ?", id).
		Update("content", content)
	if res.Error != nil {
		return fmt.Errorf("edit announcement %d: %w", id, res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrNotFound
	}
	utils.InvalidateByPrefix(ctx, feedCachePrefix)
	return nil
}

// Delete removes announcement id and reports whether exactly one row went away.
func (s *AnnouncementStore) Delete(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Announcement{})
	if res.Error != nil {
		return false, fmt.Errorf("delete announcement %d: %w", id, res.Error)
	}
	if res.RowsAffected == 1 {
		utils.InvalidateByPrefix(ctx, feedCachePrefix)
	}
	return res.RowsAffected == 1, nil
}

// Count returns the number of announcements.
func (s *AnnouncementStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Announcement{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count announcements: %w", err)
	}
	return total, nil
}

// List returns one page of announcements, newest first, and the total count.
func (s *AnnouncementStore) List(ctx context.Context, page listing.Page) ([]models.Announcement, int64, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	items := []models.Announcement{}
	err = s.db.WithContext(ctx).
		Clauses(newestFirst()).
		Scopes(page.Scope()).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	return items, total, nil
}

// Feed returns the newest n announcements for the public home page.
func (s *AnnouncementStore) Feed(ctx context.Context, n int) ([]FeedItem, error) {
	if n <= 0 {
		n = 5
	}
	key := fmt.Sprintf("%sfeed:%d", feedCachePrefix, n)
	var cached []FeedItem
	if utils.CacheGetJSON(ctx, key, &cached) {
		return cached, nil
	}

	var rows []models.Announcement
	err := s.db.WithContext(ctx).
		Select("content", "created").
		Clauses(newestFirst()).
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("announcement feed: %w", err)
	}
	items := make([]FeedItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, FeedItem{Content: r.Content, Created: r.Created})
	}
	utils.CacheSetJSON(ctx, key, items, feedCacheTTL)
	return items, nil
}

func newestFirst() clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "created"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}
}
