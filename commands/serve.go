package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/restaurant-reservations/config"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/router"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDB()

	gin.SetMode(cfg.GinMode)

	hub := events.NewHub()
	defer hub.Close()
	publisher := events.Multi{hub}

	kafka, err := kafkaPublisher(cfg)
	if err != nil {
		return err
	}
	if kafka != nil {
		defer kafka.Close()
		publisher = append(publisher, kafka)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.SetupRouter(db, cfg, hub, publisher),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return run(cfg, server)
}

func run(cfg *config.Config, server *http.Server) error {
	serverErrors := make(chan error, 1)

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case sig := <-shutdown:
		utils.InfoLogger.WithField("signal", sig.String()).Info("Shutdown signal received")
		return gracefulShutdown(cfg, server)
	}
}

func gracefulShutdown(cfg *config.Config, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Errorf("Server shutdown failed: %v", err)
		if err := server.Close(); err != nil {
			return err
		}
	}

	utils.InfoLogger.Info("Server stopped gracefully")
	return nil
}
