package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gomc/website/config"
	"github.com/gomc/website/controllers"
	"github.com/gomc/website/latex"
	"github.com/gomc/website/middleware"
	"github.com/gomc/website/session"
	"github.com/gomc/website/store"
	"github.com/gomc/website/utils"
)

// Services are the domain components the router exposes.
type Services struct {
	Validator     *session.Validator
	Manager       *session.Manager
	Announcements *store.AnnouncementStore
	Registrations *store.RegistrationStore
	Uploads       *store.UploadStore
	Pipeline      *latex.Pipeline
}

// NewServices builds the production services on db from the loaded config.
func NewServices(db *gorm.DB, cfg config.AppConfig, log *zap.Logger) Services {
	sessions := store.NewSessionStore(db)
	uploads := store.NewUploadStore(db)
	timeout := time.Duration(cfg.ToolchainTimeoutSec) * time.Second
	return Services{
		Validator: session.NewValidator(sessions, log),
		Manager: &session.Manager{
			Accounts:      sessions,
			Failures:      session.NewFailureCounter(utils.GetRedis(), time.Duration(cfg.LoginFailureWindowMinutes)*time.Minute),
			VerifyCaptcha: utils.VerifyCaptcha,
			CaptchaAfter:  cfg.LoginCaptchaAfter,
			TTL:           time.Duration(cfg.SessionTTLHours) * time.Hour,
			Now:           time.Now,
			Log:           log,
		},
		Announcements: store.NewAnnouncementStore(db, nil),
		Registrations: store.NewRegistrationStore(db, nil, log),
		Uploads:       uploads,
		Pipeline: &latex.Pipeline{
			Typesetter: latex.ExecTypesetter{Binary: cfg.LatexCompiler, Passes: cfg.LatexPasses, Timeout: timeout, Log: log},
			Exporter:   latex.ExecExporter{Binary: cfg.HTMLExporter, Timeout: timeout, Log: log},
			Saver:      uploads,
			Now:        time.Now,
			Log:        log,
		},
	}
}

// recoverJSON answers a recovered panic with the standard error envelope.
func recoverJSON(ctx *gin.Context, _ any) {
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	ctx.Abort()
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(svc Services) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	accessLog, stack := utils.Logger, true
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg); err == nil {
			accessLog, stack = gl, false
		} else {
			utils.Sugar.Warnf("gin log %s unavailable, using app log: %v", cfg.GinPath, err)
		}
	}
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.CustomRecoveryWithZap(accessLog, stack, recoverJSON))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	switch {
	case len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*":
		// credentialed requests cannot use a literal "*"
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	case len(cfg.AllowedOrigins) == 0:
		corsCfg.AllowOriginFunc = func(string) bool { return false }
	default:
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	announcementController := controllers.NewAnnouncementController(svc.Announcements)
	registrationController := controllers.NewRegistrationController(svc.Registrations, time.Local)
	loginController := controllers.NewLoginController(svc.Manager)
	latexController := controllers.NewLatexController(svc.Validator, svc.Pipeline, svc.Uploads, int64(cfg.MaxUploadMB)<<20)
	adminController := controllers.NewAdminController(cfg.LogPath)

	api := r.Group("/api")

	home := api.Group("/home")
	home.POST("/announcements", announcementController.Feed)
	home.GET("/published", latexController.Published)

	api.POST("/registration/input", middleware.RateLimit(cfg.RateLimitPerMinute), registrationController.Input)

	login := api.Group("/login")
	login.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	login.POST("/validate", loginController.Validate)
	login.GET("/captcha", loginController.Captcha)
	login.POST("/logout", loginController.Logout)

	api.POST("/latex/convert", latexController.Convert)

	admin := api.Group("/admin")
	admin.Use(middleware.SessionRequired(svc.Validator))
	admin.POST("/announcements", announcementController.List)
	admin.POST("/announcements/new", announcementController.Create)
	admin.POST("/announcements/count", announcementController.Count)
	admin.POST("/announcements/edit", announcementController.Edit)
	admin.POST("/announcements/delete", announcementController.Delete)
	admin.POST("/registrations", registrationController.List)
	admin.GET("/registrations/export", registrationController.Export)
	admin.POST("/latex/uploads", latexController.Uploads)
	admin.GET("/latex/download", latexController.Download)
	admin.GET("/latex/publish", latexController.Publish)
	admin.GET("/log", adminController.DownloadLog)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
