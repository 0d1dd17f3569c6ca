// Package app связывает конфигурацию, хранилища, сервисы и HTTP-сервер
// и управляет их жизненным циклом.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/quiz-web/internal/config"
	"github.com/yourusername/quiz-web/internal/domain/repository"
	"github.com/yourusername/quiz-web/internal/handler"
	"github.com/yourusername/quiz-web/internal/middleware"
	pgRepo "github.com/yourusername/quiz-web/internal/repository/postgres"
	redisRepo "github.com/yourusername/quiz-web/internal/repository/redis"
	"github.com/yourusername/quiz-web/internal/service"
	"github.com/yourusername/quiz-web/internal/view"
	"github.com/yourusername/quiz-web/pkg/database"
	"github.com/yourusername/quiz-web/pkg/logger"
	"github.com/yourusername/quiz-web/pkg/session"
)

// App владеет всеми ресурсами процесса
type App struct {
	cfg *config.Config

	db       *gorm.DB
	redis    redis.UniversalClient
	sessions *session.Manager
	router   *gin.Engine
	server   *http.Server

	stopSweep context.CancelFunc
	sweepDone chan struct{}
}

// New создает приложение. Ресурсы открываются в Init.
func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// PostgresRepositories строит репозитории поверх соединения или транзакции
func PostgresRepositories(tx *gorm.DB) service.Repositories {
	return service.Repositories{
		Users:     pgRepo.NewUserRepo(tx),
		Quizzes:   pgRepo.NewQuizRepo(tx),
		Questions: pgRepo.NewQuestionRepo(tx),
	}
}

// Init подключается к БД и Redis, заполняет БД демо-данными и собирает маршруты.
// Заполнение завершается до того, как сервер начнет принимать запросы.
func (a *App) Init(ctx context.Context) error {
	cfg := a.cfg
	if cfg.Server.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Database.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	var cacheRepo repository.CacheRepository
	var rateLimiter *middleware.RateLimiter
	if cfg.Redis.Enabled() {
		client, err := database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redis = client
		cache, err := redisRepo.NewCacheRepo(client, "quiz-web")
		if err != nil {
			return err
		}
		cacheRepo = cache
		rateLimiter = middleware.NewRateLimiter(client)
		logger.Infof("[App] Redis подключен: кеш викторин и rate limiting включены")
	}

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	sessionRepo := pgRepo.NewSessionRepo(db)

	// Сессии
	secret := cfg.Session.Secret
	if secret == "" {
		// Без входа в сессиях нечего защищать; ключ живет до перезапуска
		secret = uuid.NewString()
		logger.Warnf("[App] SESSION_SECRET не задан, используется случайный ключ")
	}
	sessions, err := session.NewManager(sessionRepo, secret, session.Options{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Server.Release,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	a.sessions = sessions

	// Сервисы
	authService, err := service.NewAuthService(userRepo)
	if err != nil {
		return err
	}
	transactor, err := service.NewGormTransactor(db, PostgresRepositories)
	if err != nil {
		return err
	}
	quizService := service.NewQuizService(quizRepo, questionRepo, cacheRepo, transactor)

	// Схема готова до того, как появится сервер
	if err := a.prepareSchema(ctx, quizService); err != nil {
		return err
	}
	exportService := service.NewExportService(quizRepo)

	var provider service.OAuthProvider
	if cfg.Amazon != nil {
		amazon, err := service.NewAmazonProvider(*cfg.Amazon)
		if err != nil {
			return err
		}
		provider = amazon
		logger.Infof("[App] Вход через Amazon включен, callback: %s", cfg.Amazon.CallbackURL)
	} else {
		logger.Infof("[App] AMAZON_CLIENT_ID не задан, вход через Amazon выключен")
	}

	views, err := view.New(view.Options{Dir: cfg.Views.Dir, Cache: cfg.Server.ViewCache})
	if err != nil {
		return fmt.Errorf("failed to load views: %w", err)
	}

	authHandler := handler.NewAuthHandler(authService, provider, sessions, cfg.Server.Release)
	a.router = NewRouter(RouterDeps{
		Release:      cfg.Server.Release,
		AllowOrigins: cfg.CORS.AllowOrigins,
		StaticDir:    cfg.Static.Dir,
		Views:        views,
		Auth:         middleware.NewAuthMiddleware(sessions, authService),
		RateLimiter:  rateLimiter,
		AuthHandler:  authHandler,
		PageHandler:  handler.NewPageHandler(quizService, authHandler.ProviderName()),
		QuizHandler:  handler.NewQuizHandler(quizService, exportService),
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	a.stopSweep = cancel
	a.sweepDone = make(chan struct{})
	go func() {
		defer close(a.sweepDone)
		sessions.Sweep(sweepCtx, cfg.Session.CleanupInterval)
	}()

	return nil
}

// prepareSchema пересоздает схему с демо-данными или только досоздает таблицы.
// После пересоздания ID начинаются заново, поэтому кеш викторин сбрасывается.
func (a *App) prepareSchema(ctx context.Context, quizzes *service.QuizService) error {
	if !a.cfg.Seed.Enabled {
		return database.Migrate(a.db)
	}

	seeder, err := service.NewSeedService(a.db, PostgresRepositories)
	if err != nil {
		return err
	}
	if err := seeder.Run(ctx); err != nil {
		if a.cfg.Seed.AbortOnError {
			return err
		}
		logger.Errorf("[App] Ошибка заполнения БД, продолжаем без демо-данных: %v", err)
		return database.Migrate(a.db)
	}
	if err := quizzes.ResetCache(ctx); err != nil {
		logger.Warnf("[App] %v", err)
	}
	return nil
}

// Handler возвращает корневой http.Handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Run принимает запросы до вызова Shutdown
func (a *App) Run() error {
	if a.server == nil {
		return errors.New("app is not initialized")
	}
	logger.Infof("[App] Сервер слушает порт %s", a.cfg.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown останавливает сервер и фоновые задачи и закрывает соединения
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.stopSweep != nil {
		a.stopSweep()
		select {
		case <-a.sweepDone:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("session sweeper: %w", ctx.Err()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(errs...)
}
