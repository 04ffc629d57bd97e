package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/luminacoach/sessionsync/internal/config"
	"github.com/luminacoach/sessionsync/internal/domain/feedback"
	"github.com/luminacoach/sessionsync/internal/domain/session"
	"github.com/luminacoach/sessionsync/internal/sqlite"
	"github.com/luminacoach/sessionsync/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	sessionRepo := sqlite.NewSessionRepository(db)
	feedbackRepo := sqlite.NewFeedbackRepository(db)

	sessionSvc := session.NewService(sessionRepo, logger)
	feedbackSvc := feedback.NewService(feedbackRepo, logger)

	resolver := &apiKeyResolver{db: db}
	router := transport.NewServer(sessionSvc, feedbackSvc, transport.AuthMiddleware(resolver), logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("session store listening", "addr", addr, "db", cfg.DB.Path)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveOwner(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var ownerID string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&ownerID)
	switch {
	case err == sql.ErrNoRows:
		return "", transport.ErrUnauthorized
	case err != nil:
		return "", fmt.Errorf("looking up api key: %w", err)
	case ownerID == "":
		return "", transport.ErrUnauthorized
	}
	return ownerID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
