package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-web/internal/domain/repository"
)

// Repositories - набор репозиториев, работающих поверх одного соединения или транзакции
type Repositories struct {
	Users     repository.UserRepository
	Quizzes   repository.QuizRepository
	Questions repository.QuestionRepository
}

// RepositoryFactory строит репозитории поверх транзакции
type RepositoryFactory func(tx *gorm.DB) Repositories

// Transactor выполняет fn в одной транзакции БД. Ошибка fn откатывает транзакцию.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// GormTransactor реализует Transactor через gorm.DB.Transaction
type GormTransactor struct {
	db      *gorm.DB
	factory RepositoryFactory
}

// NewGormTransactor создает Transactor поверх db
func NewGormTransactor(db *gorm.DB, factory RepositoryFactory) (*GormTransactor, error) {
	if db == nil {
		return nil, errors.New("database is required for transactions")
	}
	if factory == nil {
		return nil, errors.New("repository factory is required for transactions")
	}
	return &GormTransactor{db: db, factory: factory}, nil
}

// WithinTransaction открывает транзакцию и передает fn репозитории поверх нее
func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(t.factory(tx))
	})
}
