package app

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/yourusername/quiz-web/internal/handler"
	"github.com/yourusername/quiz-web/internal/middleware"
	"github.com/yourusername/quiz-web/pkg/logger"
)

// RouterDeps - все, что нужно для сборки маршрутов
type RouterDeps struct {
	Release      bool
	AllowOrigins []string
	StaticDir    string
	Views        render.HTMLRender
	Auth         *middleware.AuthMiddleware
	RateLimiter  *middleware.RateLimiter // nil, если Redis не настроен
	AuthHandler  *handler.AuthHandler
	PageHandler  *handler.PageHandler
	QuizHandler  *handler.QuizHandler
}

// NewRouter собирает gin.Engine: парсер тела и сессия, маршруты, затем статика через NoRoute
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if !deps.Release {
		router.Use(gin.Logger())
	}

	// В production не доверяем прокси-заголовкам, в разработке доверяем localhost
	trusted := []string{"127.0.0.1", "::1"}
	if deps.Release {
		trusted = nil
	}
	if err := router.SetTrustedProxies(trusted); err != nil {
		logger.Warnf("[Router] Не удалось задать доверенные прокси: %v", err)
	}

	router.HTMLRender = deps.Views
	router.Use(middleware.BodyParser(middleware.DefaultBodyLimit))
	router.Use(deps.Auth.LoadSession())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/", deps.PageHandler.Index)
	router.GET("/login", deps.PageHandler.Login)
	router.GET("/quizzes/:id", deps.PageHandler.Quiz)
	router.GET("/logout", deps.AuthHandler.Logout)

	// Маршруты входа существуют, только если провайдер настроен
	if deps.AuthHandler.Enabled() {
		authGroup := router.Group("/auth/" + deps.AuthHandler.ProviderName())
		if deps.RateLimiter != nil {
			authGroup.Use(deps.RateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()))
		}
		authGroup.GET("", deps.AuthHandler.Login)
		authGroup.GET("/callback", deps.AuthHandler.Callback)
	}

	api := router.Group("/api")
	api.Use(cors.New(corsConfig(deps.AllowOrigins)))
	{
		quizzes := api.Group("/quizzes")
		quizzes.GET("", deps.QuizHandler.ListQuizzes)

		writes := quizzes.Group("", deps.Auth.RequireUser())
		if deps.RateLimiter != nil {
			writes.Use(deps.RateLimiter.LimitByIP(middleware.DefaultAPIRateLimitConfig()))
		}
		writes.POST("", deps.QuizHandler.CreateQuiz)

		quizWithID := quizzes.Group("/:id", middleware.ExtractUintParam("id", handler.QuizIDKey))
		quizWithID.GET("", deps.QuizHandler.GetQuiz)

		ownerOnly := quizWithID.Group("", deps.Auth.RequireUser())
		if deps.RateLimiter != nil {
			ownerOnly.Use(deps.RateLimiter.LimitByIP(middleware.DefaultAPIRateLimitConfig()))
		}
		ownerOnly.POST("/questions", deps.QuizHandler.AddQuestion)
		ownerOnly.GET("/export", deps.QuizHandler.ExportQuiz)
	}

	router.NoRoute(staticFallback(deps.StaticDir))
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// staticFallback отдает файлы из dir для путей, не совпавших ни с одним маршрутом
func staticFallback(dir string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if dir != "" && (c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead) {
			clean := path.Clean("/" + c.Request.URL.Path)
			info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean)))
			if err == nil && !info.IsDir() {
				files.ServeHTTP(c.Writer, c.Request)
				return
			}
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "error_type": "not_found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	}
}
