package dto

import (
	"time"

	"github.com/yourusername/quiz-web/internal/domain/entity"
)

// QuestionResponse представляет вопрос в формате для ответа клиенту
type QuestionResponse struct {
	ID      uint            `json:"id"`
	Q       string          `json:"q"`
	Choices []entity.Choice `json:"choices,omitempty"`
	A       string          `json:"a,omitempty"` // Только для владельца викторины
}

// QuizResponse представляет викторину в формате для ответа клиенту
type QuizResponse struct {
	ID               uint               `json:"id"`
	Name             string             `json:"name"`
	Type             string             `json:"type"`
	OwnerID          uint               `json:"owner_id"`
	OwnerDisplayName string             `json:"owner_display_name"`
	QuestionCount    int                `json:"question_count"`
	Questions        []QuestionResponse `json:"questions,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// QuizListResponse - страница викторин
type QuizListResponse struct {
	Data    []*QuizResponse `json:"data"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// NewQuestionResponse создает DTO для вопроса. Правильный ответ добавляется только при revealAnswer.
func NewQuestionResponse(q *entity.Question, revealAnswer bool) QuestionResponse {
	resp := QuestionResponse{
		ID:      q.ID,
		Q:       q.Q,
		Choices: q.Choices(),
	}
	if revealAnswer {
		resp.A = q.A
	}
	return resp
}

// NewQuizResponse создает DTO для викторины
func NewQuizResponse(quiz *entity.Quiz, includeQuestions, revealAnswers bool) *QuizResponse {
	resp := &QuizResponse{
		ID:               quiz.ID,
		Name:             quiz.Name,
		Type:             quiz.Type,
		OwnerID:          quiz.OwnerID,
		OwnerDisplayName: quiz.OwnerDisplayName,
		QuestionCount:    len(quiz.Questions),
		CreatedAt:        quiz.CreatedAt,
	}
	if includeQuestions {
		resp.Questions = make([]QuestionResponse, 0, len(quiz.Questions))
		for i := range quiz.Questions {
			resp.Questions = append(resp.Questions, NewQuestionResponse(&quiz.Questions[i], revealAnswers))
		}
	}
	return resp
}

// NewQuizListResponse создает DTO страницы викторин
func NewQuizListResponse(quizzes []entity.Quiz, page, perPage int) *QuizListResponse {
	data := make([]*QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		data = append(data, NewQuizResponse(&quizzes[i], false, false))
	}
	return &QuizListResponse{Data: data, Page: page, PerPage: perPage}
}
