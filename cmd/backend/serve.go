package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hairizuan-noorazman/webtester/advisor"
	"github.com/hairizuan-noorazman/webtester/agent"
	"github.com/hairizuan-noorazman/webtester/cmd/backend/handlers"
	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/database"
	"github.com/hairizuan-noorazman/webtester/events"
	"github.com/hairizuan-noorazman/webtester/logger"
	"github.com/hairizuan-noorazman/webtester/storage"
	"github.com/hairizuan-noorazman/webtester/telemetry"
	"github.com/hairizuan-noorazman/webtester/testrun"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web tester backend",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	// Run history database
	db, err := database.Connect(databaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	// MySQL schemas are managed through the migrate command; the embedded
	// sqlite database migrates itself at startup.
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(&testrun.Record{}); err != nil {
			return fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}
	log.Info(ctx, "database connected", map[string]interface{}{
		"driver":   cfg.Database.Driver,
		"database": cfg.Database.Database,
	})

	// Core components
	configStore := config.NewFileStore(cfg.Agent.ConfigPath, log)
	bus := events.NewBus()
	defer bus.Close()
	manager := testrun.NewManager(bus, log)
	history := testrun.NewGormStore(db, log)

	archives, err := storage.New(storage.Config{
		Type:     cfg.Storage.Type,
		BaseDir:  cfg.Storage.BaseDir,
		S3Bucket: cfg.Storage.S3Bucket,
		S3Region: cfg.Storage.S3Region,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize archive storage: %w", err)
	}

	tel := telemetry.New(cfg.Telemetry.Endpoint, Version, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "telemetry shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	var adv advisor.Advisor
	if cfg.Advisor.Enabled {
		adv, err = advisor.NewBedrockAdvisor(cfg.Advisor.Region, cfg.Advisor.Model, cfg.Advisor.MaxTokens)
		if err != nil {
			return fmt.Errorf("failed to initialize advisor: %w", err)
		}
		log.Info(ctx, "advisor enabled", map[string]interface{}{
			"model": cfg.Advisor.Model,
		})
	}

	agentClient := agent.NewHTTPClient(cfg.Agent.RuntimeURL, cfg.Agent.RequestTimeout, log)
	orchestrator := agent.NewOrchestrator(configStore, manager, history, agentClient, adv, archives, tel, bus, log)

	// Handlers
	authHandler, err := handlers.NewAuthHandler(
		cfg.Server.DashboardPassword,
		cfg.Server.CookieSecret,
		cfg.Server.CookieName,
		cfg.Server.CookieSecure,
		cfg.Server.SessionDuration,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}
	dashboardHandler, err := handlers.NewDashboardHandler(Version, authHandler.Enabled(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize dashboard: %w", err)
	}
	configHandler := handlers.NewConfigHandler(configStore, log)
	runHandler := handlers.NewRunHandler(orchestrator, manager, history, archives, log)
	eventsHandler := handlers.NewEventsHandler(bus, log)
	authMiddleware := handlers.NewAuthMiddleware(authHandler, log)

	// Router
	router := mux.NewRouter()
	router.Use(handlers.LoggingMiddleware(log))

	router.HandleFunc("/health", handlers.NewHealthHandler(Version)).Methods("GET")
	router.HandleFunc("/", dashboardHandler.Index).Methods("GET")
	router.HandleFunc("/api/v1/auth/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/api/v1/auth/logout", authHandler.Logout).Methods("POST")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMiddleware.Handler)

	apiRouter.HandleFunc("/config", configHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/config", configHandler.Update).Methods("POST")
	apiRouter.HandleFunc("/runs", runHandler.Start).Methods("POST")
	apiRouter.HandleFunc("/runs", runHandler.List).Methods("GET")
	apiRouter.HandleFunc("/runs/current", runHandler.Status).Methods("GET")
	apiRouter.HandleFunc("/runs/{id}", runHandler.Get).Methods("GET")
	apiRouter.HandleFunc("/runs/{id}/download", runHandler.Download).Methods("GET")
	apiRouter.HandleFunc("/results", runHandler.Clear).Methods("DELETE")
	apiRouter.HandleFunc("/events", eventsHandler.Stream).Methods("GET")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// SSE connections stay open indefinitely, so no write timeout.
		WriteTimeout: 0,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gCtx, "server listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info(context.Background(), "shutting down server", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info(context.Background(), "server stopped", nil)
	return nil
}
