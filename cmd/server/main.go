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

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GetCached()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.CloseDatabase()
	logger.SetDefault(app.Log)
	if rl, ok := app.Log.(*logger.RollbarLogger); ok {
		defer rl.Flush()
	}

	// 首次刷新会抬起 loading 标志，之后按间隔静默刷新
	go app.Hub.Run(ctx, cfg.RefreshInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("🚀 Listening on :%s (%s)\n", cfg.Port, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Println("🔄 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	fmt.Println("✅ Server stopped")
	return nil
}
