package main

import (
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hireflow/backend/repository"
	"github.com/hireflow/backend/services"
)

func main() {
	// Setup structured logging with JSON format
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	config := services.LoadConfig()

	if config.Database.URL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(config.Database.URL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(config.Database.LogLevel)),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to database")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(config.Database.MaxIdleConns)
		sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)
	}

	repo := repository.NewGORMRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations complete")

	if config.Database.SeedDemo {
		if err := services.NewDatabaseSeeder(repo).SeedDatabase(); err != nil {
			slog.Error("Failed to seed database", "error", err)
		}
	}

	server := services.NewServer(config)
	server.SetDatabase(repo, db)
	if err := server.InitializeServices(); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server.Start()
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
