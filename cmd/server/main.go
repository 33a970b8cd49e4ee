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
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Server *http.Server
	Logger *logrus.Logger
}

func NewApp(config Config, engine *gin.Engine, logger *logrus.Logger) *App {
	return &App{
		Server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       2 * time.Minute,
			MaxHeaderBytes:    1 << 20,
		},
		Logger: logger,
	}
}

func main() {
	config, err := LoadConfig()
	if err != nil {
		logrus.Fatalf("Error ocurred when loading configuration: %s", err)
	}

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Info("initializing image proxy")
	app, cleanup := InitializeApp(ctx, config)
	defer cleanup()

	go func() {
		app.Logger.WithField("addr", app.Server.Addr).Info("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	app.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		app.Logger.WithError(err).Error("graceful shutdown failed")
	}
}
