package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-web/internal/handler/dto"
	"github.com/yourusername/quiz-web/internal/middleware"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
	"github.com/yourusername/quiz-web/internal/service"
	"github.com/yourusername/quiz-web/pkg/logger"
)

// PageHandler отдает серверные HTML-страницы
type PageHandler struct {
	quizService  *service.QuizService
	providerName string // пусто, если вход не настроен
}

// NewPageHandler создает обработчик страниц
func NewPageHandler(quizService *service.QuizService, providerName string) *PageHandler {
	return &PageHandler{quizService: quizService, providerName: providerName}
}

func (h *PageHandler) baseData(c *gin.Context, title string) gin.H {
	return gin.H{
		"Title":        title,
		"User":         dto.NewUserResponse(middleware.CurrentUser(c)),
		"AuthEnabled":  h.providerName != "",
		"ProviderName": h.providerName,
	}
}

// Index показывает список викторин
func (h *PageHandler) Index(c *gin.Context) {
	quizzes, err := h.quizService.ListQuizzes(c.Request.Context(), 1, 0)
	if err != nil {
		h.renderError(c, err)
		return
	}
	data := h.baseData(c, "Quizzes")
	data["Quizzes"] = dto.NewQuizListResponse(quizzes, 1, len(quizzes)).Data
	c.HTML(http.StatusOK, "index", data)
}

// Login показывает страницу входа
func (h *PageHandler) Login(c *gin.Context) {
	c.HTML(http.StatusOK, "login", h.baseData(c, "Log in"))
}

// Quiz показывает вопросы викторины
func (h *PageHandler) Quiz(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		h.renderError(c, apperrors.ErrNotFound)
		return
	}
	quiz, err := h.quizService.GetQuizWithQuestions(c.Request.Context(), uint(id))
	if err != nil {
		h.renderError(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	owner := user != nil && quiz.IsOwnedBy(user.ID)
	data := h.baseData(c, quiz.Name)
	data["Quiz"] = dto.NewQuizResponse(quiz, true, owner)
	data["IsOwner"] = owner
	c.HTML(http.StatusOK, "quiz", data)
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong"
	if errors.Is(err, apperrors.ErrNotFound) {
		status = http.StatusNotFound
		message = "Not found"
	} else {
		logger.Errorf("[PageHandler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	data := h.baseData(c, message)
	data["Status"] = status
	data["Message"] = message
	c.HTML(status, "error", data)
}
