package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/quiz-web/internal/app"
	"github.com/yourusername/quiz-web/internal/config"
	"github.com/yourusername/quiz-web/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	env := "development"
	if cfg.Server.Release {
		env = "production"
	}
	if err := logger.Init(&logger.Config{Level: cfg.Log.Level, Env: env, ServiceName: "quiz-web"}); err != nil {
		log.Printf("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg)
	if err := application.Init(ctx); err != nil {
		logger.Errorf("[Main] Ошибка инициализации: %v", err)
		shutdown(application)
		logger.Sync()
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Infof("[Main] Получен сигнал остановки")
	case err := <-errCh:
		if err != nil {
			logger.Errorf("[Main] Сервер остановился с ошибкой: %v", err)
		}
	}

	shutdown(application)
	logger.Infof("[Main] Сервер остановлен")
}

func shutdown(application *app.App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		logger.Errorf("[Main] Ошибка при остановке: %v", err)
	}
}
