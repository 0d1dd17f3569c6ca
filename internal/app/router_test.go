package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-web/internal/domain/entity"
	"github.com/yourusername/quiz-web/internal/handler"
	"github.com/yourusername/quiz-web/internal/middleware"
	apperrors "github.com/yourusername/quiz-web/internal/pkg/errors"
	"github.com/yourusername/quiz-web/internal/service"
	"github.com/yourusername/quiz-web/internal/view"
	"github.com/yourusername/quiz-web/pkg/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Хранилища в памяти
// ============================================================================

type memUsers struct {
	mu     sync.Mutex
	nextID uint
	rows   map[string]*entity.User
	// nilFor - ID провайдера, для которого хранилище возвращает пустой результат без ошибки
	nilFor string
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[string]*entity.User)}
}

func (r *memUsers) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[user.AmazonID]; ok {
		return apperrors.ErrConflict
	}
	r.nextID++
	user.ID = r.nextID
	copied := *user
	r.rows[user.AmazonID] = &copied
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uint) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUsers) GetByAmazonID(_ context.Context, amazonID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.rows[amazonID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *memUsers) FindOrCreateByAmazonID(ctx context.Context, amazonID, displayName string) (*entity.User, bool, error) {
	if amazonID == r.nilFor {
		return nil, false, nil
	}
	if u, err := r.GetByAmazonID(ctx, amazonID); err == nil {
		return u, false, nil
	}
	user := &entity.User{AmazonID: amazonID, DisplayName: displayName}
	if err := r.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (r *memUsers) UpdateDisplayName(_ context.Context, userID uint, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.ID == userID {
			u.DisplayName = displayName
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *memUsers) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

type memSessions struct {
	mu   sync.Mutex
	rows map[string]entity.Session
}

func (r *memSessions) Get(_ context.Context, id string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &row, nil
}

func (r *memSessions) Save(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.ID] = *s
	return nil
}

func (r *memSessions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memSessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memQuizzes struct {
	quizzes []entity.Quiz
}

func (r *memQuizzes) Create(_ context.Context, quiz *entity.Quiz) error {
	quiz.ID = uint(len(r.quizzes) + 1)
	r.quizzes = append(r.quizzes, *quiz)
	return nil
}

func (r *memQuizzes) GetByID(_ context.Context, id uint) (*entity.Quiz, error) {
	for i := range r.quizzes {
		if r.quizzes[i].ID == id {
			q := r.quizzes[i]
			return &q, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memQuizzes) GetByName(_ context.Context, name string) (*entity.Quiz, error) {
	for i := range r.quizzes {
		if r.quizzes[i].Name == name {
			q := r.quizzes[i]
			return &q, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memQuizzes) GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error) {
	return r.GetByID(ctx, id)
}

func (r *memQuizzes) List(context.Context, int, int) ([]entity.Quiz, error) {
	return r.quizzes, nil
}

func (r *memQuizzes) ListByOwner(_ context.Context, ownerID uint) ([]entity.Quiz, error) {
	var out []entity.Quiz
	for _, q := range r.quizzes {
		if q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *memQuizzes) AddQuestion(_ context.Context, quizID, questionID uint) error {
	for i := range r.quizzes {
		if r.quizzes[i].ID == quizID {
			r.quizzes[i].Questions = append(r.quizzes[i].Questions, entity.Question{ID: questionID, QuizID: &quizID})
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type memQuestions struct {
	nextID uint
}

func (r *memQuestions) Create(_ context.Context, q *entity.Question) error {
	r.nextID++
	q.ID = r.nextID
	return nil
}

func (r *memQuestions) GetByQuizID(context.Context, uint) ([]entity.Question, error) {
	return nil, nil
}

// fakeProvider принимает код "code-<id>" и возвращает профиль с этим ID
type fakeProvider struct {
	names map[string]string
}

func (p *fakeProvider) Name() string { return "amazon" }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example/consent?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*service.Profile, error) {
	id, ok := strings.CutPrefix(code, "code-")
	if !ok {
		return nil, service.ErrProviderExchange
	}
	return &service.Profile{ID: id, DisplayName: p.names[id]}, nil
}

// ============================================================================
// Сборка роутера
// ============================================================================

type testEnv struct {
	router   *gin.Engine
	users    *memUsers
	sessions *memSessions
	quizzes  *memQuizzes
	provider *fakeProvider
}

func newTestEnv(t *testing.T, withProvider bool, staticDir string) *testEnv {
	t.Helper()
	env := &testEnv{
		users:    newMemUsers(),
		sessions: &memSessions{rows: make(map[string]entity.Session)},
		quizzes:  &memQuizzes{},
		provider: &fakeProvider{names: map[string]string{}},
	}

	manager, err := session.NewManager(env.sessions, "test-secret", session.Options{MaxAge: time.Minute})
	require.NoError(t, err)
	authService, err := service.NewAuthService(env.users)
	require.NoError(t, err)
	quizService := service.NewQuizService(env.quizzes, &memQuestions{}, nil, nil)
	views, err := view.New(view.Options{})
	require.NoError(t, err)

	var provider service.OAuthProvider
	if withProvider {
		provider = env.provider
	}
	authHandler := handler.NewAuthHandler(authService, provider, manager, false)

	env.router = NewRouter(RouterDeps{
		StaticDir:   staticDir,
		Views:       views,
		Auth:        middleware.NewAuthMiddleware(manager, authService),
		AuthHandler: authHandler,
		PageHandler: handler.NewPageHandler(quizService, authHandler.ProviderName()),
		QuizHandler: handler.NewQuizHandler(quizService, service.NewExportService(env.quizzes)),
	})
	return env
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login проходит весь поток входа и возвращает куки сессии
func (e *testEnv) login(t *testing.T, providerID string) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()
	w := e.do(httptest.NewRequest(http.MethodGet, "/auth/amazon", nil))
	require.Equal(t, http.StatusFound, w.Code)

	consent, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	callback := "/auth/amazon/callback?code=code-" + url.QueryEscape(providerID) + "&state=" + url.QueryEscape(state)
	w = e.do(httptest.NewRequest(http.MethodGet, callback, nil), w.Result().Cookies()...)

	var sessionCookies []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "quiz.sid" {
			sessionCookies = append(sessionCookies, c)
		}
	}
	return w, sessionCookies
}

// ============================================================================
// Тесты
// ============================================================================

func TestAuthRoutesAbsentWithoutProvider(t *testing.T) {
	env := newTestEnv(t, false, "")

	for _, path := range []string{"/auth/amazon", "/auth/amazon/callback?code=code-x"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Login is not configured")
}

func TestLoginRedirectsToProvider(t *testing.T) {
	env := newTestEnv(t, true, "")

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/amazon", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://provider.example/consent?state="))
}

func TestCallback_NewUser(t *testing.T) {
	env := newTestEnv(t, true, "")
	env.provider.names["amzn1.account.NEW"] = "Newcomer"

	w, cookies := env.login(t, "amzn1.account.NEW")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	require.Len(t, cookies, 1)
	assert.Equal(t, 60, cookies[0].MaxAge)

	count, _ := env.users.Count(context.Background())
	assert.EqualValues(t, 1, count)

	page := env.do(httptest.NewRequest(http.MethodGet, "/", nil), cookies...)
	assert.Contains(t, page.Body.String(), "Newcomer")
}

func TestCallback_ExistingUserRenamed(t *testing.T) {
	env := newTestEnv(t, true, "")
	ctx := context.Background()
	require.NoError(t, env.users.Create(ctx, &entity.User{AmazonID: "amzn1.account.OLD", DisplayName: "Old Name"}))
	env.provider.names["amzn1.account.OLD"] = "New Name"

	w, _ := env.login(t, "amzn1.account.OLD")
	assert.Equal(t, "/", w.Header().Get("Location"))

	count, _ := env.users.Count(ctx)
	assert.EqualValues(t, 1, count)
	user, err := env.users.GetByAmazonID(ctx, "amzn1.account.OLD")
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.DisplayName)
}

func TestCallback_NilUserRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, true, "")
	env.users.nilFor = "ghost"

	w, cookies := env.login(t, "ghost")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Empty(t, cookies)
	assert.Empty(t, env.sessions.rows)
}

func TestCallback_StateMismatch(t *testing.T) {
	env := newTestEnv(t, true, "")

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/amazon/callback?code=code-x&state=forged", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	count, _ := env.users.Count(context.Background())
	assert.Zero(t, count)
}

func TestCallback_ExchangeFailure(t *testing.T) {
	env := newTestEnv(t, true, "")

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/amazon", nil))
	consent, _ := url.Parse(w.Header().Get("Location"))
	callback := "/auth/amazon/callback?code=bad&state=" + url.QueryEscape(consent.Query().Get("state"))

	w = env.do(httptest.NewRequest(http.MethodGet, callback, nil), w.Result().Cookies()...)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, true, "")
	env.provider.names["amzn1.account.L"] = "Leaver"
	_, cookies := env.login(t, "amzn1.account.L")
	require.Len(t, env.sessions.rows, 1)

	w := env.do(httptest.NewRequest(http.MethodGet, "/logout", nil), cookies...)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, env.sessions.rows)
}

func TestAPI_CreateQuizRequiresLogin(t *testing.T) {
	env := newTestEnv(t, true, "")

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(`{"name":"capitals"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_CreateQuizAndAddQuestion(t *testing.T) {
	env := newTestEnv(t, true, "")
	env.provider.names["amzn1.account.O"] = "Owner"
	_, cookies := env.login(t, "amzn1.account.O")

	form := url.Values{"quiz[name]": {"capitals"}, "quiz[type]": {"trueFalse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := env.do(req, cookies...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"owner_display_name":"Owner"`)

	body := `{"data":{"type":"questions","attributes":{"q":"Austin is the capital of Texas","a":"true"}}}`
	req = httptest.NewRequest(http.MethodPost, "/api/quizzes/1/questions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/vnd.api+json")
	w = env.do(req, cookies...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"a":"true"`)

	req = httptest.NewRequest(http.MethodPost, "/api/quizzes/abc/questions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/vnd.api+json")
	w = env.do(req, cookies...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error_type":"invalid_quiz_id"`)
}

func TestAPI_GetQuizHidesAnswersFromOthers(t *testing.T) {
	env := newTestEnv(t, true, "")
	quizID := uint(1)
	env.quizzes.quizzes = []entity.Quiz{{
		ID: quizID, Name: "capitals", Type: entity.QuizTypeTrueFalse, OwnerID: 42,
		Questions: []entity.Question{{ID: 1, QuizID: &quizID, Q: "Austin is the capital of Texas", A: "true"}},
	}}

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/quizzes/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Austin is the capital of Texas")
	assert.NotContains(t, w.Body.String(), `"a":`)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/quizzes/2", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	page := env.do(httptest.NewRequest(http.MethodGet, "/quizzes/2", nil))
	assert.Equal(t, http.StatusNotFound, page.Code)
	assert.Contains(t, page.Body.String(), "Not found")
}

func TestStaticBelowRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "style.css"), []byte("body{}"), 0o644))
	// Файл с именем маршрута не перекрывает маршрут
	require.NoError(t, os.WriteFile(filepath.Join(dir, "health"), []byte("static"), 0o644))

	env := newTestEnv(t, false, dir)

	w := env.do(httptest.NewRequest(http.MethodGet, "/css/style.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodGet, "/missing.txt", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(httptest.NewRequest(http.MethodGet, "/../../etc/passwd", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
