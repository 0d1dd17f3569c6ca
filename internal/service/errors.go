package service

import (
	"fmt"

	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
)

// Ошибки сервисов викторин; оборачивают общие ошибки для маппинга в HTTP-статусы
var (
	ErrQuizNotOwned   = fmt.Errorf("%w: quiz belongs to another user", apperrors.ErrForbidden)
	ErrTooManyChoices = fmt.Errorf("%w: question has more than four choices", apperrors.ErrValidation)
)
