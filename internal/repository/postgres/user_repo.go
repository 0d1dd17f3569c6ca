package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя вместе с вложенными викторинами, если они заданы
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: amazon_id %q already exists", apperrors.ErrConflict, user.AmazonID)
		}
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByAmazonID возвращает пользователя по идентификатору Amazon
func (r *UserRepo) GetByAmazonID(ctx context.Context, amazonID string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("amazon_id = ?", amazonID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByAmazonID вставляет пользователя через INSERT ... ON CONFLICT DO NOTHING.
// Если строка уже была (RowsAffected == 0), читает существующую.
func (r *UserRepo) FindOrCreateByAmazonID(ctx context.Context, amazonID, displayName string) (*entity.User, bool, error) {
	user := &entity.User{AmazonID: amazonID, DisplayName: displayName}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "amazon_id"}},
			DoNothing: true,
		}).
		Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, false, fmt.Errorf("%w: amazon_id %q", apperrors.ErrConflict, amazonID)
		}
		return nil, false, fmt.Errorf("find-or-create user failed: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return user, true, nil
	}

	existing, err := r.GetByAmazonID(ctx, amazonID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// UpdateDisplayName точечно обновляет отображаемое имя
func (r *UserRepo) UpdateDisplayName(ctx context.Context, userID uint, displayName string) error {
	result := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"display_name": displayName,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Count возвращает количество пользователей
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&total).Error
	return total, err
}
