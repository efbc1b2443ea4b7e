package main

import (
	"context"
	"time"

	"github.com/gomc/website/config"
	"github.com/gomc/website/routes"
	"github.com/gomc/website/session"
	"github.com/gomc/website/store"
	"github.com/gomc/website/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	rc := utils.InitRedis(cfg)
	db := config.InitDatabase()

	svc := routes.NewServices(db, cfg, utils.Logger)
	if err := svc.Manager.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.Sugar.Fatalf("seed admin: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	session.StartCleaner(ctx, store.NewSessionStore(db), time.Duration(cfg.SessionCleanupMinutes)*time.Minute, utils.Logger)

	r := routes.SetupRouter(svc)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err := utils.GraceServer(":"+cfg.AppPort, r, cancel, func() {
		if rc != nil {
			_ = rc.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
