package entity

import (
	"strings"
	"time"
)

// DefaultDisplayName используется, когда провайдер не вернул имя
const DefaultDisplayName = "Anonymous"

// User представляет пользователя, вошедшего через внешнего OAuth-провайдера
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AmazonID    string    `gorm:"column:amazon_id;size:255;not null;uniqueIndex" json:"-"`
	DisplayName string    `gorm:"size:255;not null;default:''" json:"display_name"`
	Quizzes     []Quiz    `gorm:"foreignKey:OwnerID" json:"quizzes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// NormalizeDisplayName обрезает пробелы и подставляет имя по умолчанию
func NormalizeDisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDisplayName
	}
	return name
}
