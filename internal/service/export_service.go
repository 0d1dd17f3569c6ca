package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	"github.com/yourusername/quiz-web/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
)

// XLSXContentType - MIME-тип выгрузки
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []interface{}{"#", "Вопрос", "Ответ", "A", "B", "C", "D"}

// ExportService выгружает вопросы викторины в Excel
type ExportService struct {
	quizRepo repository.QuizRepository
}

// NewExportService создает сервис выгрузки
func NewExportService(quizRepo repository.QuizRepository) *ExportService {
	return &ExportService{quizRepo: quizRepo}
}

// ExportQuiz пишет xlsx-файл с вопросами и правильными ответами.
// Выгрузка доступна только владельцу викторины. Возвращает викторину для имени файла.
func (s *ExportService) ExportQuiz(ctx context.Context, user *entity.User, quizID uint, w io.Writer) (*entity.Quiz, error) {
	if user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	quiz, err := s.quizRepo.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsOwnedBy(user.ID) {
		return nil, ErrQuizNotOwned
	}
	if err := WriteQuizXLSX(quiz, w); err != nil {
		return nil, err
	}
	return quiz, nil
}

// WriteQuizXLSX формирует книгу с одним листом через StreamWriter
func WriteQuizXLSX(quiz *entity.Quiz, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := sheetNameFor(quiz.Name)
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	if err := sw.SetRow("A1", exportHeaders); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, q := range quiz.Questions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			i + 1,
			sanitizeForExcel(q.Q),
			sanitizeForExcel(q.A),
			sanitizeForExcel(q.ChoiceA),
			sanitizeForExcel(q.ChoiceB),
			sanitizeForExcel(q.ChoiceC),
			sanitizeForExcel(q.ChoiceD),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// sheetNameFor приводит имя викторины к допустимому имени листа (до 31 символа)
func sheetNameFor(name string) string {
	runes := []rune(name)
	clean := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		clean = append(clean, r)
	}
	if len(clean) > 31 {
		clean = clean[:31]
	}
	if len(clean) == 0 {
		return "Quiz"
	}
	return string(clean)
}
