package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
	"github.com/yourusername/quiz-web/pkg/logger"
	"github.com/yourusername/quiz-web/pkg/session"
)

// Ключи контекста gin
const (
	SessionKey = "session"
	UserKey    = "user"
	// SessionUserKey - ключ в данных сессии, где хранится сериализованный пользователь
	SessionUserKey = "user"
)

// UserDeserializer восстанавливает пользователя из значения сессии
type UserDeserializer interface {
	DeserializeUser(ctx context.Context, value string) (*entity.User, error)
}

// AuthMiddleware загружает сессию и текущего пользователя
type AuthMiddleware struct {
	sessions *session.Manager
	users    UserDeserializer
}

// NewAuthMiddleware создает middleware сессий
func NewAuthMiddleware(sessions *session.Manager, users UserDeserializer) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, users: users}
}

// LoadSession читает сессию из куки и, если в ней есть пользователь, кладет его в контекст.
// Пользователь, удаленный из БД, убирается из сессии.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := m.sessions.Load(ctx, c.Request)
		if err != nil {
			logger.Errorf("[AuthMiddleware] Ошибка загрузки сессии: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Set(SessionKey, sess)

		if value := sess.Get(SessionUserKey); value != "" && m.users != nil {
			user, err := m.users.DeserializeUser(ctx, value)
			switch {
			case err == nil:
				c.Set(UserKey, user)
			case errors.Is(err, apperrors.ErrNotFound):
				sess.Delete(SessionUserKey)
				if err := m.sessions.Save(ctx, c.Writer, sess); err != nil {
					logger.Warnf("[AuthMiddleware] Не удалось обновить сессию %s: %v", sess.ID, err)
				}
			default:
				logger.Errorf("[AuthMiddleware] Ошибка восстановления пользователя: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}
		c.Next()
	}
}

// RequireUser пропускает только запросы с вошедшим пользователем
func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "login_required"})
			return
		}
		c.Next()
	}
}

// CurrentUser возвращает пользователя текущего запроса или nil
func CurrentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*entity.User); ok {
			return user
		}
	}
	return nil
}

// CurrentSession возвращает сессию текущего запроса или nil
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(SessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return nil
}
