package main

import (
	"fmt"

	"github.com/tasktrack-dev/tasktrack/db"
	"github.com/tasktrack-dev/tasktrack/internal/config"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
	"github.com/tasktrack-dev/tasktrack/internal/notifier"
	"github.com/tasktrack-dev/tasktrack/internal/services"
	"gorm.io/gorm"
)

// app holds the services shared by every command.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	audit    *services.AuditLog
	tasks    *services.TaskWorkflow
	projects *services.ProjectWorkflow
	admin    *services.AdminOverride
	dispatch *services.NotificationDispatcher
	comments *services.CommentService
	accounts *services.AccountService
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cfg *config.Config) (*app, error) {
	gdb, err := db.ConnectDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.MigrateDatabase(gdb); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	n, err := notifier.New(cfg.Notifier)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	timeout := cfg.Database.OpTimeout
	audit := services.NewAuditLog(gdb, timeout)
	a := &app{
		cfg:      cfg,
		db:       gdb,
		audit:    audit,
		tasks:    services.NewTaskWorkflow(gdb, timeout, audit),
		projects: services.NewProjectWorkflow(gdb, timeout, audit),
		admin:    services.NewAdminOverride(gdb, timeout, audit, cfg.Admin.VerifyForcePaths),
		dispatch: services.NewNotificationDispatcher(gdb, timeout, n),
		comments: services.NewCommentService(gdb, timeout, audit),
		accounts: services.NewAccountService(gdb, timeout),
	}

	a.tasks.SetEvents(a.dispatch)
	a.admin.SetEvents(a.dispatch)

	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
