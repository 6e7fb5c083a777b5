package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/movie-chat-backend/config"
	"github.com/dustin/movie-chat-backend/pkg/logger"
)

func main() {
	// Optional .env, then raw environment
	if err := config.LoadDotEnv(); err != nil {
		panic("Failed to load .env: " + err.Error())
	}
	cfg := config.Load()

	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	appLogger.Info("Starting movie chat backend service")

	a, err := newApp(cfg, appLogger)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	a.start()

	serverPort := cfg.Server.Port
	if serverPort == "" {
		serverPort = "8080"
	}

	serverReadTimeout := 30 * time.Second
	if cfg.Server.ReadTimeout != "" {
		if duration, err := time.ParseDuration(cfg.Server.ReadTimeout); err == nil {
			serverReadTimeout = duration
		}
	}

	// training on demand can take a while
	serverWriteTimeout := 2 * time.Minute
	if cfg.Server.WriteTimeout != "" {
		if duration, err := time.ParseDuration(cfg.Server.WriteTimeout); err == nil {
			serverWriteTimeout = duration
		}
	}

	serverEnvironment := cfg.Server.Environment
	if serverEnvironment == "" {
		serverEnvironment = "development"
	}

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      a.router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server: " + err.Error())
		}
	}()

	appLogger.Info("Server started successfully on port " + serverPort + " (" + serverEnvironment + " environment)")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown: " + err.Error())
	}
	a.close()

	appLogger.Info("Server shutdown complete")
}
