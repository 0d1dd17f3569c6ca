package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
)

func vocabQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:        2,
		Name:      "vocab",
		Type:      entity.QuizTypeMultipleChoice,
		OwnerID:   1,
		Questions: DemoQuizzes()[1].Questions,
	}
}

func TestWriteQuizXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteQuizXLSX(vocabQuiz(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("vocab")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Вопрос", rows[0][1])
	assert.Equal(t, []string{"1", "For the word: accurate, what is the best synonym?", "d", "recent", "better", "pleased", "correct"}, rows[1])
	assert.Equal(t, "For the word: definitely, what is the best synonym?", rows[3][1])
}

func TestExportQuiz_Ownership(t *testing.T) {
	ctx := context.Background()
	quizzes := new(MockQuizRepository)
	svc := NewExportService(quizzes)
	quizzes.On("GetWithQuestions", ctx, uint(2)).Return(vocabQuiz(), nil)

	_, err := svc.ExportQuiz(ctx, nil, 2, &bytes.Buffer{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.ExportQuiz(ctx, &entity.User{ID: 99}, 2, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrQuizNotOwned)

	var buf bytes.Buffer
	quiz, err := svc.ExportQuiz(ctx, &entity.User{ID: 1}, 2, &buf)
	require.NoError(t, err)
	assert.Equal(t, "vocab", quiz.Name)
	assert.NotZero(t, buf.Len())
}

func TestSheetNameFor(t *testing.T) {
	assert.Equal(t, "Quiz", sheetNameFor(""))
	assert.Equal(t, "ab", sheetNameFor("a/b"))
	assert.Len(t, []rune(sheetNameFor(strings.Repeat("я", 40))), 31)
}

func TestSanitizeForExcel(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", sanitizeForExcel("=SUM(A1)"))
	assert.Equal(t, "'@cmd", sanitizeForExcel("@cmd"))
	assert.Equal(t, "plain", sanitizeForExcel("plain"))
	assert.Equal(t, "", sanitizeForExcel(""))
}
