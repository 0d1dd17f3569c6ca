package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-web/internal/handler/dto"
	"github.com/yourusername/quiz-web/internal/handler/helper"
	"github.com/yourusername/quiz-web/internal/middleware"
	"github.com/yourusername/quiz-web/internal/service"
	"github.com/yourusername/quiz-web/pkg/logger"
)

// QuizIDKey - ключ контекста для ID викторины из URL
const QuizIDKey = "quizID"

// QuizHandler обрабатывает JSON API викторин
type QuizHandler struct {
	quizService   *service.QuizService
	exportService *service.ExportService
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService, exportService *service.ExportService) *QuizHandler {
	return &QuizHandler{
		quizService:   quizService,
		exportService: exportService,
	}
}

// ListQuizzes возвращает страницу викторин
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	quizzes, err := h.quizService.ListQuizzes(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, dto.NewQuizListResponse(quizzes, page, len(quizzes)))
}

// GetQuiz возвращает викторину с вопросами; ответы видит только владелец
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet(QuizIDKey).(uint)
	quiz, err := h.quizService.GetQuizWithQuestions(c.Request.Context(), quizID)
	if err != nil {
		respondError(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	owner := user != nil && quiz.IsOwnedBy(user.ID)
	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, true, owner))
}

// CreateQuiz создает викторину текущего пользователя
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	attrs := helper.Attributes(middleware.BodyMap(c), "quiz")
	quiz, err := h.quizService.CreateQuiz(
		c.Request.Context(),
		middleware.CurrentUser(c),
		helper.StringField(attrs, "name"),
		helper.StringField(attrs, "type"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz, false, false))
}

// AddQuestion добавляет вопрос в викторину владельца
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID := c.MustGet(QuizIDKey).(uint)
	attrs := helper.Attributes(middleware.BodyMap(c), "question")

	question, err := h.quizService.AddQuestion(c.Request.Context(), middleware.CurrentUser(c), quizID, service.QuestionInput{
		Q:       helper.StringField(attrs, "q"),
		A:       helper.StringField(attrs, "a"),
		Choices: helper.StringSlice(attrs, "choices"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuestionResponse(question, true))
}

// ExportQuiz отдает xlsx-файл с вопросами и ответами
func (h *QuizHandler) ExportQuiz(c *gin.Context) {
	quizID := c.MustGet(QuizIDKey).(uint)

	var buf bytes.Buffer
	quiz, err := h.exportService.ExportQuiz(c.Request.Context(), middleware.CurrentUser(c), quizID, &buf)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz_%d.xlsx", quiz.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, service.XLSXContentType, buf.Bytes())
	logger.Debugf("[QuizHandler] Выгружена викторина %d (%d байт)", quiz.ID, buf.Len())
}
