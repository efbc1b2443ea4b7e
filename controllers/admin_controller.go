package controllers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/utils"
)

// AdminController serves admin maintenance endpoints.
type AdminController struct {
	logPath string
}

// NewAdminController creates an AdminController reading logs from logPath.
func NewAdminController(logPath string) *AdminController {
	return &AdminController{logPath: logPath}
}

// DownloadLog streams the current application log file.
func (a *AdminController) DownloadLog(ctx *gin.Context) {
	b, err := os.ReadFile(a.logPath)
	if errors.Is(err, os.ErrNotExist) || a.logPath == "" {
		utils.Error(ctx, http.StatusNotFound, 40460, "log file not found")
		return
	}
	if err != nil {
		utils.Sugar.Errorf("read log file failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to read log file")
		return
	}
	utils.Attachment(ctx, "log.txt", b)
}
