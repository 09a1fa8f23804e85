package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/service"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/config"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
	httpserver "github.com/VedantBhayani/labour-skill-employment-sub003/internal/interfaces/http"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/notification"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/report"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/repository"
	"github.com/VedantBhayani/labour-skill-employment-sub003/pkg/database"
	"github.com/VedantBhayani/labour-skill-employment-sub003/pkg/logging"
)

func main() {
	_ = gotenv.Load()

	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting workflow engine",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	templateRepo := repository.NewTemplateRepository(db.DB, logger)
	instanceRepo := repository.NewInstanceRepository(db.DB, logger)

	// Notification dispatcher: engine emits facts, delivery is external
	dispatcher := notification.NewDispatcher(logger)
	dispatcher.Subscribe("log", notification.LoggingHandler(logger))
	defer dispatcher.Close()

	// Engine and services
	engine := workflow.NewEngine()
	kv := logging.NewKV(logger)
	templateService := service.NewTemplateService(templateRepo, instanceRepo, kv)
	workflowService := service.NewWorkflowService(templateRepo, instanceRepo, engine, dispatcher, kv)
	exporter := report.NewAuditExporter(logger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, workflowService, templateService, exporter, kv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
