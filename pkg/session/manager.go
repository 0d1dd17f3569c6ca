// Package session хранит серверные сессии в БД и связывает их с клиентом
// через подписанную куку. Кука содержит только JWT (HS256) с ID сессии и сроком действия.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	"github.com/yourusername/quiz-web/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
	"github.com/yourusername/quiz-web/pkg/logger"
)

// ErrInvalidToken возвращается при неверной подписи или истекшем токене
var ErrInvalidToken = errors.New("invalid session token")

// Options задает атрибуты куки
type Options struct {
	CookieName string
	MaxAge     time.Duration
	Path       string
	Secure     bool
}

// Manager выдает, читает и уничтожает сессии
type Manager struct {
	repo   repository.SessionRepository
	secret []byte
	opts   Options
	now    func() time.Time
}

// NewManager создает менеджер сессий
func NewManager(repo repository.SessionRepository, secret string, opts Options) (*Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if opts.MaxAge <= 0 {
		return nil, fmt.Errorf("session max age must be positive")
	}
	if opts.CookieName == "" {
		opts.CookieName = "quiz.sid"
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &Manager{
		repo:   repo,
		secret: []byte(secret),
		opts:   opts,
		now:    time.Now,
	}, nil
}

// CookieName возвращает имя сессионной куки
func (m *Manager) CookieName() string {
	return m.opts.CookieName
}

// Session - данные одной сессии. Значения сохраняются только после Manager.Save.
type Session struct {
	ID        string
	ExpiresAt time.Time
	values    map[string]string
	isNew     bool
	dirty     bool
}

// Get возвращает значение по ключу или пустую строку
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Set устанавливает значение
func (s *Session) Set(key, value string) {
	if s.values[key] == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Delete удаляет значение
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// IsNew сообщает, что сессия еще не сохранена в БД
func (s *Session) IsNew() bool {
	return s.isNew
}

func newSession() *Session {
	return &Session{values: make(map[string]string), isNew: true}
}

// Load читает сессию из куки запроса. Отсутствующая, поддельная или истекшая
// сессия заменяется новой пустой; ошибка возвращается только при сбое хранилища.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return newSession(), nil
	}

	sid, err := m.VerifyValue(cookie.Value)
	if err != nil {
		logger.Debugf("[Session] Отклонена кука сессии: %v", err)
		return newSession(), nil
	}

	record, err := m.repo.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return newSession(), nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if record.IsExpired(m.now()) {
		if err := m.repo.Delete(ctx, record.ID); err != nil {
			logger.Warnf("[Session] Не удалось удалить истекшую сессию %s: %v", record.ID, err)
		}
		return newSession(), nil
	}

	values := make(map[string]string)
	if record.Data != "" {
		if err := json.Unmarshal([]byte(record.Data), &values); err != nil {
			logger.Warnf("[Session] Поврежденные данные сессии %s: %v", record.ID, err)
			return newSession(), nil
		}
	}
	return &Session{ID: record.ID, ExpiresAt: record.ExpiresAt, values: values}, nil
}

// Save сохраняет измененную сессию. Новой сессии выдается кука с Max-Age;
// у существующей срок не продлевается.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.dirty {
		return nil
	}
	// Пустую новую сессию не сохраняем
	if s.isNew && len(s.values) == 0 {
		return nil
	}

	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if s.isNew {
		s.ID = uuid.NewString()
		s.ExpiresAt = m.now().Add(m.opts.MaxAge)
	}

	record := &entity.Session{ID: s.ID, Data: string(data), ExpiresAt: s.ExpiresAt}
	if err := m.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if s.isNew {
		token, err := m.sign(s.ID, s.ExpiresAt)
		if err != nil {
			return err
		}
		http.SetCookie(w, m.cookie(token, int(m.opts.MaxAge.Seconds()), s.ExpiresAt))
		s.isNew = false
	}
	s.dirty = false
	return nil
}

// Destroy удаляет сессию из БД и стирает куку
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.isNew && s.ID != "" {
		if err := m.repo.Delete(ctx, s.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	http.SetCookie(w, m.cookie("", -1, time.Unix(0, 0)))
	s.values = make(map[string]string)
	s.isNew = true
	s.dirty = false
	return nil
}

// Regenerate удаляет запись сессии и помечает ее новой, сохраняя значения.
// Следующий Save выдаст новый ID, новую куку и новый срок жизни.
func (m *Manager) Regenerate(ctx context.Context, s *Session) error {
	if !s.isNew && s.ID != "" {
		if err := m.repo.Delete(ctx, s.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	s.ID = ""
	s.ExpiresAt = time.Time{}
	s.isNew = true
	s.dirty = true
	return nil
}

// SignValue подписывает произвольное значение на срок ttl (используется для state в OAuth)
func (m *Manager) SignValue(value string, ttl time.Duration) (string, error) {
	return m.sign(value, m.now().Add(ttl))
}

// VerifyValue проверяет подпись и срок действия, возвращает исходное значение
func (m *Manager) VerifyValue(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.ID == "" || claims.ExpiresAt == nil {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

// Sweep периодически удаляет истекшие сессии, пока ctx не отменен
func (m *Manager) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deleted, err := m.repo.DeleteExpired(ctx, m.now())
			if err != nil {
				logger.Errorf("[Session] Ошибка очистки истекших сессий: %v", err)
				continue
			}
			if deleted > 0 {
				logger.Debugf("[Session] Удалено истекших сессий: %d", deleted)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) sign(id string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(m.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

func (m *Manager) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     m.opts.Path,
		MaxAge:   maxAge,
		Expires:  expires,
		Secure:   m.opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
