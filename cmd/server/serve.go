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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayush/animanga/backend/internal/auth"
	"github.com/ayush/animanga/backend/internal/catalogue"
	"github.com/ayush/animanga/backend/internal/password"
	"github.com/ayush/animanga/backend/internal/remember"
	"github.com/ayush/animanga/backend/internal/session"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	cmd.Flags().String("static", "", "Directory of static pages to serve at /")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	staticDir, _ := cmd.Flags().GetString("static")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log
	ctx := context.Background()

	// ── Credential store ─────────────────────────────────────
	creds, err := a.credentials(ctx)
	if err != nil {
		return err
	}
	if err := creds.Migrate(ctx); err != nil {
		return err
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := a.redis(ctx)
	if err != nil {
		return err
	}
	sessions := session.NewManager(rdb, cfg.SessionTTL, cfg.CookieSecure)

	// ── Services ─────────────────────────────────────────────
	hasher := password.NewBcrypt(cfg.BcryptCost)
	authSvc, err := auth.NewService(creds, hasher, log)
	if err != nil {
		return err
	}
	tokens, err := remember.NewService(creds, hasher, log)
	if err != nil {
		return err
	}

	// ── Catalogue (MongoDB + MinIO) ──────────────────────────
	var catalogueHandler *catalogue.Handler
	catalogueSvc, err := a.catalogue(ctx)
	if err != nil {
		return err
	}
	if catalogueSvc != nil {
		catalogueHandler = catalogue.NewHandler(catalogueSvc, log)
	} else {
		log.Warn("MONGO_URI not set, catalogue routes disabled")
	}

	// ── Router ───────────────────────────────────────────────
	handler := newRouter(routerDeps{
		log:            log,
		auth:           auth.NewHandler(authSvc, sessions, tokens, log, cfg.CookieSecure),
		sessions:       sessions,
		tokens:         tokens,
		catalogue:      catalogueHandler,
		allowedOrigins: cfg.AllowedOrigins,
		secureCookies:  cfg.CookieSecure,
		staticDir:      staticDir,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "db": cfg.DBDriver}).Info("backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
