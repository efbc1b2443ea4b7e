package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/config"
	"github.com/gomc/website/listing"
	"github.com/gomc/website/middleware"
	"github.com/gomc/website/store"
	"github.com/gomc/website/utils"
)

// AnnouncementResult is the outcome of an announcement write.
type AnnouncementResult int

const (
	AnnouncementSuccess AnnouncementResult = iota
	AnnouncementMissingContent
	AnnouncementNotFound
)

func (r AnnouncementResult) String() string {
	switch r {
	case AnnouncementSuccess:
		return "Success"
	case AnnouncementMissingContent:
		return "MissingContent"
	default:
		return "NotFound"
	}
}

// MarshalJSON renders the result name.
func (r AnnouncementResult) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// AnnouncementController serves the public feed and the admin CRUD endpoints.
type AnnouncementController struct {
	store *store.AnnouncementStore
}

// NewAnnouncementController creates an AnnouncementController.
func NewAnnouncementController(s *store.AnnouncementStore) *AnnouncementController {
	return &AnnouncementController{store: s}
}

// Feed returns the newest announcements for the home page.
func (a *AnnouncementController) Feed(ctx *gin.Context) {
	items, err := a.store.Feed(ctx.Request.Context(), config.Get().FeedSize)
	if err != nil {
		utils.Sugar.Errorf("announcement feed failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load announcements")
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// Create adds an announcement authored by the session owner.
func (a *AnnouncementController) Create(ctx *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	loginID, _ := middleware.LoginID(ctx)

	item, err := a.store.Create(ctx.Request.Context(), req.Content, loginID)
	if errors.Is(err, store.ErrMissingContent) {
		utils.Fail(ctx, http.StatusBadRequest, 40040, "content cannot be empty", gin.H{"result": AnnouncementMissingContent})
		return
	}
	if err != nil {
		utils.Sugar.Errorf("create announcement failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create announcement")
		return
	}
	utils.Success(ctx, gin.H{"result": AnnouncementSuccess, "announcement": item})
}

// Count returns the number of announcements.
func (a *AnnouncementController) Count(ctx *gin.Context) {
	total, err := a.store.Count(ctx.Request.Context())
	if err != nil {
		utils.Sugar.Errorf("count announcements failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count announcements")
		return
	}
	utils.Success(ctx, gin.H{"total": total})
}

// List returns one page of announcements, newest first.
func (a *AnnouncementController) List(ctx *gin.Context) {
	page := defaultPage()
	if err := bindOptionalJSON(ctx, &page); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	items, total, err := a.store.List(ctx.Request.Context(), page)
	if err != nil {
		utils.Sugar.Errorf("list announcements failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list announcements")
		return
	}
	utils.Success(ctx, listPayload(items, total, page))
}

// Edit replaces the content of an announcement.
func (a *AnnouncementController) Edit(ctx *gin.Context) {
	var req struct {
		ID         uint   `json:"announcementId"`
		NewContent string `json:"newContent"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	err := a.store.Edit(ctx.Request.Context(), req.ID, req.NewContent)
	switch {
	case err == nil:
		utils.Success(ctx, gin.H{"result": AnnouncementSuccess})
	case errors.Is(err, store.ErrMissingContent):
		utils.Fail(ctx, http.StatusBadRequest, 40040, "content cannot be empty", gin.H{"result": AnnouncementMissingContent})
	case errors.Is(err, store.ErrNotFound):
		utils.Fail(ctx, http.StatusNotFound, 40440, "announcement not found", gin.H{"result": AnnouncementNotFound})
	default:
		utils.Sugar.Errorf("edit announcement failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to edit announcement")
	}
}

// Delete removes an announcement and reports whether a row was removed.
func (a *AnnouncementController) Delete(ctx *gin.Context) {
	var req struct {
		ID uint `json:"announcementId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	deleted, err := a.store.Delete(ctx.Request.Context(), req.ID)
	if err != nil {
		utils.Sugar.Errorf("delete announcement failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to delete announcement")
		return
	}
	utils.Success(ctx, gin.H{"deleted": deleted})
}

func listPayload(items interface{}, total int64, page listing.Page) gin.H {
	page = page.Normalize()
	return gin.H{
		"items": items,
		"total": total,
		"pagination": gin.H{
			"pageIndex":  page.Index,
			"pageLength": page.Length,
		},
	}
}
