package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/quiz-web/internal/middleware"
	"github.com/yourusername/quiz-web/internal/service"
	"github.com/yourusername/quiz-web/pkg/logger"
	"github.com/yourusername/quiz-web/pkg/session"
)

const (
	oauthStateCookie = "quiz.oauth_state"
	oauthStateTTL    = 10 * time.Minute

	successRedirect = "/"
	failureRedirect = "/login"
)

// AuthHandler обрабатывает вход через внешнего OAuth-провайдера и выход
type AuthHandler struct {
	authService *service.AuthService
	provider    service.OAuthProvider
	sessions    *session.Manager
	secure      bool
}

// NewAuthHandler создает новый обработчик аутентификации. provider может быть nil,
// тогда доступен только выход.
func NewAuthHandler(authService *service.AuthService, provider service.OAuthProvider, sessions *session.Manager, secure bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		provider:    provider,
		sessions:    sessions,
		secure:      secure,
	}
}

// Enabled сообщает, настроен ли провайдер
func (h *AuthHandler) Enabled() bool {
	return h.provider != nil
}

// ProviderName возвращает имя провайдера для маршрутов /auth/<name>
func (h *AuthHandler) ProviderName() string {
	if h.provider == nil {
		return ""
	}
	return h.provider.Name()
}

// Login перенаправляет на страницу согласия провайдера
func (h *AuthHandler) Login(c *gin.Context) {
	if h.provider == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	state := uuid.NewString()
	signed, err := h.sessions.SignValue(state, oauthStateTTL)
	if err != nil {
		logger.Errorf("[AuthHandler] Не удалось подписать state: %v", err)
		c.Redirect(http.StatusFound, failureRedirect)
		return
	}
	h.setStateCookie(c, signed, int(oauthStateTTL.Seconds()))

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback завершает вход: проверяет state, обменивает код, находит или создает
// пользователя и кладет его в сессию. Любая ошибка ведет на /login.
func (h *AuthHandler) Callback(c *gin.Context) {
	if h.provider == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	ctx := c.Request.Context()

	if err := h.checkState(c); err != nil {
		h.fail(c, err)
		return
	}
	if providerErr := c.Query("error"); providerErr != "" {
		h.fail(c, errors.New("provider returned error: "+providerErr))
		return
	}

	profile, err := h.provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.authService.Authenticate(ctx, profile)
	if err != nil {
		h.fail(c, err)
		return
	}

	sess := middleware.CurrentSession(c)
	if sess == nil {
		if sess, err = h.sessions.Load(ctx, c.Request); err != nil {
			h.fail(c, err)
			return
		}
	}
	if err := h.sessions.Regenerate(ctx, sess); err != nil {
		h.fail(c, err)
		return
	}
	sess.Set(middleware.SessionUserKey, h.authService.SerializeUser(user))
	if err := h.sessions.Save(ctx, c.Writer, sess); err != nil {
		h.fail(c, err)
		return
	}

	logger.Infof("[AuthHandler] Пользователь ID=%d вошел через %s", user.ID, h.provider.Name())
	c.Redirect(http.StatusFound, successRedirect)
}

// Logout уничтожает сессию и возвращает на главную
func (h *AuthHandler) Logout(c *gin.Context) {
	if sess := middleware.CurrentSession(c); sess != nil {
		if err := h.sessions.Destroy(c.Request.Context(), c.Writer, sess); err != nil {
			logger.Warnf("[AuthHandler] Ошибка удаления сессии: %v", err)
		}
	}
	c.Redirect(http.StatusFound, successRedirect)
}

func (h *AuthHandler) checkState(c *gin.Context) error {
	cookie, err := c.Cookie(oauthStateCookie)
	h.setStateCookie(c, "", -1)
	if err != nil || cookie == "" {
		return service.ErrStateMismatch
	}
	expected, err := h.sessions.VerifyValue(cookie)
	if err != nil {
		return service.ErrStateMismatch
	}
	if got := c.Query("state"); got == "" || got != expected {
		return service.ErrStateMismatch
	}
	return nil
}

func (h *AuthHandler) setStateCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    value,
		Path:     "/auth",
		MaxAge:   maxAge,
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	logger.Warnf("[AuthHandler] Вход не выполнен: %v", err)
	c.Redirect(http.StatusFound, failureRedirect)
}
