package entity

import (
	"strings"
	"time"
)

// MaxChoices - максимальное количество вариантов ответа у вопроса
const MaxChoices = 4

// ChoiceLabels - метки вариантов в порядке отображения
var ChoiceLabels = [MaxChoices]string{"a", "b", "c", "d"}

// Choice - вариант ответа с меткой
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question представляет вопрос викторины.
// QuizID пустой, пока вопрос не привязан к викторине через QuizRepository.AddQuestion.
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QuizID    *uint     `gorm:"index" json:"quiz_id,omitempty"`
	Q         string    `gorm:"column:q;size:500;not null" json:"q"`
	A         string    `gorm:"column:a;size:50;not null" json:"a"`
	ChoiceA   string    `gorm:"column:choice_a;size:255;not null;default:''" json:"choice_a,omitempty"`
	ChoiceB   string    `gorm:"column:choice_b;size:255;not null;default:''" json:"choice_b,omitempty"`
	ChoiceC   string    `gorm:"column:choice_c;size:255;not null;default:''" json:"choice_c,omitempty"`
	ChoiceD   string    `gorm:"column:choice_d;size:255;not null;default:''" json:"choice_d,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// Choices возвращает непустые варианты ответа с метками a-d
func (q *Question) Choices() []Choice {
	raw := [MaxChoices]string{q.ChoiceA, q.ChoiceB, q.ChoiceC, q.ChoiceD}
	choices := make([]Choice, 0, MaxChoices)
	for i, text := range raw {
		if strings.TrimSpace(text) == "" {
			continue
		}
		choices = append(choices, Choice{Label: ChoiceLabels[i], Text: text})
	}
	return choices
}

// IsMultipleChoice проверяет, есть ли у вопроса варианты ответа
func (q *Question) IsMultipleChoice() bool {
	return len(q.Choices()) > 0
}

// IsCorrect сравнивает ответ с правильным без учета регистра и пробелов
func (q *Question) IsCorrect(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.A))
}

// IsValidAnswer проверяет, что ответ допустим для вопроса:
// метка существующего варианта для вопросов с выбором, true/false для остальных.
func (q *Question) IsValidAnswer(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if q.IsMultipleChoice() {
		for _, c := range q.Choices() {
			if c.Label == answer {
				return true
			}
		}
		return false
	}
	return answer == "true" || answer == "false"
}
