package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gomc/website/metrics"
	"github.com/gomc/website/session"
	"github.com/gomc/website/utils"
)

// LoginController handles admin login, logout and the login captcha.
type LoginController struct {
	manager *session.Manager
}

// NewLoginController creates a LoginController.
func NewLoginController(m *session.Manager) *LoginController {
	return &LoginController{manager: m}
}

// Validate checks the credentials and sets the session cookie on success.
func (l *LoginController) Validate(ctx *gin.Context) {
	var req struct {
		Email         string `json:"email" form:"email" binding:"required"`
		Password      string `json:"password" form:"password" binding:"required"`
		CaptchaID     string `json:"captchaId" form:"captchaId"`
		CaptchaAnswer string `json:"captchaAnswer" form:"captchaAnswer"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, ValidationMessage(err))
		return
	}

	out, err := l.manager.Login(ctx.Request.Context(), session.LoginInput{
		Email:         req.Email,
		Password:      req.Password,
		CaptchaID:     req.CaptchaID,
		CaptchaAnswer: req.CaptchaAnswer,
	})
	if err != nil {
		utils.Sugar.Errorf("login failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "login failed")
		return
	}
	metrics.LoginAttemptsTotal.WithLabelValues(out.Result.String()).Inc()

	switch out.Result {
	case session.LoginSuccess:
		setSessionCookie(ctx, out.Token, time.Until(out.Expiration))
		utils.Success(ctx, out)
	case session.LoginNeedCaptcha:
		utils.Fail(ctx, http.StatusUnauthorized, 40122, "captcha required", out)
	default:
		utils.Fail(ctx, http.StatusUnauthorized, 40121, "invalid credentials", out)
	}
}

// Logout removes the current session and clears the cookie.
func (l *LoginController) Logout(ctx *gin.Context) {
	token, _ := ctx.Cookie(session.CookieName)
	if token != "" {
		if err := l.manager.Logout(ctx.Request.Context(), token); err != nil {
			utils.Sugar.Errorf("logout failed: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, 50011, "logout failed")
			return
		}
	}
	setSessionCookie(ctx, "", -1)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Captcha issues a new login captcha.
func (l *LoginController) Captcha(ctx *gin.Context) {
	id, image, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Sugar.Errorf("captcha generation failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": image})
}

func setSessionCookie(ctx *gin.Context, token string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(session.CookieName, token, maxAge, "/", "", ctx.Request.TLS != nil, true)
}
