package entity

import (
	"time"
)

// Типы викторин, которые знает интерфейс. Поле Type свободное, другие значения допустимы.
const (
	QuizTypeTrueFalse      = "trueFalse"
	QuizTypeMultipleChoice = "multipleChoice"
)

// Quiz представляет викторину пользователя
type Quiz struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:100;not null;index" json:"name"`
	Type             string     `gorm:"size:50;not null;default:''" json:"type"`
	OwnerID          uint       `gorm:"not null;index" json:"owner_id"`
	OwnerDisplayName string     `gorm:"size:255;not null;default:''" json:"owner_display_name"`
	Questions        []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// IsTrueFalse проверяет, является ли викторина викториной "верно/неверно"
func (q *Quiz) IsTrueFalse() bool {
	return q.Type == QuizTypeTrueFalse
}

// IsMultipleChoice проверяет, является ли викторина викториной с вариантами ответа
func (q *Quiz) IsMultipleChoice() bool {
	return q.Type == QuizTypeMultipleChoice
}

// IsOwnedBy проверяет владельца викторины
func (q *Quiz) IsOwnedBy(userID uint) bool {
	return userID != 0 && q.OwnerID == userID
}
