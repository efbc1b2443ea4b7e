package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/listing"
	"github.com/gomc/website/models"
	"github.com/gomc/website/store"
	"github.com/gomc/website/utils"
)

// RegistrationController accepts public registrations and serves the admin
// listing and CSV export.
type RegistrationController struct {
	store *store.RegistrationStore
	loc   *time.Location
}

// NewRegistrationController creates a RegistrationController; CSV dates are
// rendered in loc, or local time when loc is nil.
func NewRegistrationController(s *store.RegistrationStore, loc *time.Location) *RegistrationController {
	if loc == nil {
		loc = time.Local
	}
	return &RegistrationController{store: s, loc: loc}
}

// Input stores one registration from the public form.
func (r *RegistrationController) Input(ctx *gin.Context) {
	var req struct {
		Name        string `json:"userName" form:"userName" binding:"required,max=255"`
		Email       string `json:"userEmail" form:"userEmail" binding:"required,email,max=255"`
		Affiliation string `json:"userAffliation" form:"userAffliation" binding:"max=255"`
		Comment     string `json:"extraComment" form:"extraComment" binding:"max=4000"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, ValidationMessage(err))
		return
	}

	reg := models.Registration{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Affiliation: strings.TrimSpace(req.Affiliation),
		Text:        req.Comment,
	}
	if err := r.store.Add(ctx.Request.Context(), &reg); err != nil {
		utils.Sugar.Errorf("registration input failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save registration")
		return
	}
	utils.Success(ctx, gin.H{"id": reg.ID})
}

// List returns the filtered, ordered page of registrations.
func (r *RegistrationController) List(ctx *gin.Context) {
	req := struct {
		listing.Page
		FilterName  string                  `json:"filterName"`
		FilterEmail string                  `json:"filterEmail"`
		IsDesc      bool                    `json:"isDesc"`
		OrderBy     store.RegistrationOrder `json:"orderBy"`
	}{Page: defaultPage()}
	if err := bindOptionalJSON(ctx, &req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	users, total, err := r.store.List(ctx.Request.Context(), store.RegistrationQuery{
		Page:        req.Page,
		OrderBy:     req.OrderBy,
		Desc:        req.IsDesc,
		NameFilter:  req.FilterName,
		EmailFilter: req.FilterEmail,
	})
	if err != nil {
		utils.Sugar.Errorf("list registrations failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list registrations")
		return
	}
	utils.Success(ctx, listPayload(users, int64(total), req.Page))
}

// Export downloads every registration matching the filters as CSV.
func (r *RegistrationController) Export(ctx *gin.Context) {
	isDesc, _ := strconv.ParseBool(ctx.Query("isDesc"))
	users, _, err := r.store.List(ctx.Request.Context(), store.RegistrationQuery{
		Page:        listing.All,
		OrderBy:     store.ParseRegistrationOrder(ctx.Query("orderBy")),
		Desc:        isDesc,
		NameFilter:  ctx.Query("nameFilter"),
		EmailFilter: ctx.Query("emailFilter"),
	})
	if err != nil {
		utils.Sugar.Errorf("export registrations failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to export registrations")
		return
	}
	utils.Attachment(ctx, "export.csv", utils.RegistrationsCSV(users, r.loc))
}
