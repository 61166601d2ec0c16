package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tasktrack-dev/tasktrack/internal/auth"
	"github.com/tasktrack-dev/tasktrack/internal/handlers"
	"github.com/tasktrack-dev/tasktrack/internal/live"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
	"github.com/tasktrack-dev/tasktrack/internal/middleware"
	"github.com/tasktrack-dev/tasktrack/internal/router"
	"github.com/tasktrack-dev/tasktrack/internal/scheduler"
	"github.com/tasktrack-dev/tasktrack/internal/types"
)

func serveCmd() *cobra.Command {
	var cookieDomain string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cookieDomain)
		},
	}

	cmd.Flags().StringVar(&cookieDomain, "cookie-domain", os.Getenv("DOMAIN"), "domain for the session cookie")

	return cmd
}

func runServe(cookieDomain string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	gateway, err := auth.NewGateway(a.db, cfg.Auth)
	if err != nil {
		return err
	}

	origins := types.AllowedOrigins(cfg.Server.ClientURL, cfg.Server.AllowedOrigins)
	hub := live.NewHub(origins)
	a.dispatch.SetPublisher(hub)

	h := &handlers.Handler{
		DB:            a.db,
		Auth:          gateway,
		Tasks:         a.tasks,
		Projects:      a.projects,
		Admin:         a.admin,
		Notifications: a.dispatch,
		Comments:      a.comments,
		Audit:         a.audit,
		Accounts:      a.accounts,
		Hub:           hub,
		CookieDomain:  cookieDomain,
	}

	gin.SetMode(cfg.Server.Mode)
	r := router.NewRouter(h, middleware.AuthMiddleware(gateway, a.db), origins)

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(a.dispatch, cfg.Scheduler.Interval, cfg.Scheduler.Window)
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		logging.Logger.WithField("signal", sig.String()).Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logging.Logger.Info("server exited")
	return nil
}
