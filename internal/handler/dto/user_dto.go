package dto

import "github.com/yourusername/quiz-web/internal/domain/entity"

// UserResponse - публичное представление пользователя
type UserResponse struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

// NewUserResponse создает DTO пользователя; для nil возвращает nil
func NewUserResponse(user *entity.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{ID: user.ID, DisplayName: user.DisplayName}
}
