package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	"github.com/yourusername/quiz-web/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
	"github.com/yourusername/quiz-web/pkg/logger"
)

// AuthService связывает профиль провайдера с локальным пользователем
// и переводит пользователя в значение сессии и обратно.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService создает сервис аутентификации
func NewAuthService(userRepo repository.UserRepository) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &AuthService{userRepo: userRepo}, nil
}

// Authenticate находит или создает пользователя по ID провайдера.
// Для существующего пользователя отображаемое имя обновляется на месте.
func (s *AuthService) Authenticate(ctx context.Context, profile *Profile) (*entity.User, error) {
	if profile == nil || strings.TrimSpace(profile.ID) == "" {
		return nil, ErrNoUser
	}
	displayName := entity.NormalizeDisplayName(profile.DisplayName)

	user, created, err := s.userRepo.FindOrCreateByAmazonID(ctx, profile.ID, displayName)
	if errors.Is(err, apperrors.ErrConflict) {
		// Параллельный первый вход вставил строку раньше нас - читаем ее
		logger.Infof("[AuthService] Конфликт вставки для %s, повторное чтение", profile.ID)
		user, err = s.userRepo.GetByAmazonID(ctx, profile.ID)
		created = false
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrNoUser
		}
		return nil, fmt.Errorf("failed to find or create user: %w", err)
	}
	if user == nil {
		return nil, ErrNoUser
	}

	if created {
		logger.Infof("[AuthService] Создан пользователь ID=%d", user.ID)
		return user, nil
	}

	if err := s.userRepo.UpdateDisplayName(ctx, user.ID, displayName); err != nil {
		return nil, fmt.Errorf("failed to update display name: %w", err)
	}
	user.DisplayName = displayName
	return user, nil
}

// SerializeUser возвращает значение, которое хранится в сессии
func (s *AuthService) SerializeUser(user *entity.User) string {
	if user == nil {
		return ""
	}
	return user.AmazonID
}

// DeserializeUser восстанавливает пользователя из значения сессии.
// Возвращает apperrors.ErrNotFound, если пользователя больше нет.
func (s *AuthService) DeserializeUser(ctx context.Context, amazonID string) (*entity.User, error) {
	if strings.TrimSpace(amazonID) == "" {
		return nil, apperrors.ErrNotFound
	}
	return s.userRepo.GetByAmazonID(ctx, amazonID)
}
