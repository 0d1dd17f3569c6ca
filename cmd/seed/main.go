// Команда seed пересоздает схему и заполняет БД демо-данными без запуска сервера.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/yourusername/quiz-web/internal/app"
	"github.com/yourusername/quiz-web/internal/config"
	"github.com/yourusername/quiz-web/internal/service"
	"github.com/yourusername/quiz-web/pkg/database"
	"github.com/yourusername/quiz-web/pkg/logger"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(&logger.Config{Level: cfg.Log.Level, Env: "cli", ServiceName: "quiz-web-seed"}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Errorf("[Seed] %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Database.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warnf("[Seed] Ошибка закрытия БД: %v", err)
		}
	}()

	seeder, err := service.NewSeedService(db, app.PostgresRepositories)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return seeder.Run(ctx)
}
