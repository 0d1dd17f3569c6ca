package entity

import (
	"time"
)

// Session - серверная сессия, на которую ссылается подписанная кука
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Data      string    `gorm:"type:text;not null;default:'{}'" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Session) TableName() string {
	return "sessions"
}

// IsExpired проверяет, истекла ли сессия к моменту now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
