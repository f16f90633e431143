package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/neuroguard/neuroguard-api/internal/domain"
	"github.com/neuroguard/neuroguard-api/internal/service"
	"github.com/neuroguard/neuroguard-api/internal/util"
)

type memoryUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[uuid.UUID]*domain.User{}}
}

func (r *memoryUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Phone == user.Phone {
			return nil, &pgconn.PgError{Code: "23505"}
		}
	}
	clone := *user
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *memoryUserRepo) FindByIdentifier(ctx context.Context, emailOrPhone string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == emailOrPhone || u.Phone == emailOrPhone {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r *memoryUserRepo) SetResetState(ctx context.Context, id uuid.UUID, codeHash []byte, expiresAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ResetCodeHash = append([]byte(nil), codeHash...)
	exp := expiresAt
	u.ResetExpires = &exp
	u.ResetVerified = false
	return nil
}

func (r *memoryUserRepo) ClearResetState(ctx context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ResetCodeHash = nil
	u.ResetExpires = nil
	u.ResetVerified = false
	return nil
}

func (r *memoryUserRepo) MarkResetVerified(ctx context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ResetVerified = true
	return nil
}

func (r *memoryUserRepo) FindWithActiveReset(ctx context.Context, now time.Time) (*domain.User, error) {
	for _, u := range r.users {
		if u.HasActiveReset(now) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryUserRepo) FindWithVerifiedReset(ctx context.Context, now time.Time) (*domain.User, error) {
	for _, u := range r.users {
		if u.HasActiveReset(now) && u.ResetVerified {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryUserRepo) UpdatePasswordClearReset(ctx context.Context, id uuid.UUID, passwordHash []byte) error {
	u, ok := r.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = append([]byte(nil), passwordHash...)
	u.ResetCodeHash = nil
	u.ResetExpires = nil
	u.ResetVerified = false
	return nil
}

type nopMailer struct{}

func (nopMailer) SendResetCode(ctx context.Context, user *domain.User, code string) error {
	return nil
}

func newTestServer() *echo.Echo {
	repo := newMemoryUserRepo()
	jwtManager := util.NewJWTManager("test-secret", 24*time.Hour)
	auth := service.NewAuthService(repo, nopMailer{}, jwtManager, 10*time.Minute)
	profiles := service.NewProfileService(repo)

	e := NewRouter([]string{"*"})
	NewAuthHandler(auth, false).Register(e)
	NewProfileHandler(profiles).Register(e, auth)
	return e
}

func doJSON(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("expected a session cookie, got %v", rec.Header().Values("Set-Cookie"))
	return nil
}

const registerBody = `{
	"firstName": "Jane",
	"lastName": "Doe",
	"email": "a@x.com",
	"password": "Secret1",
	"dateOfBirth": "1990-05-04",
	"gender": "Female",
	"phone": "+1555",
	"role": "Patient"
}`

func TestRegisterEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(e, http.MethodPost, "/api/users/register", registerBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected HttpOnly SameSite=Strict cookie, got %+v", cookie)
	}

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			User map[string]interface{} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success status, got %q", envelope.Status)
	}
	if envelope.Data.User["firstName"] != "Jane" {
		t.Fatalf("expected created user in body, got %v", envelope.Data.User)
	}
	lowered := strings.ToLower(rec.Body.String())
	if strings.Contains(lowered, "password") || strings.Contains(lowered, "reset") {
		t.Fatalf("register response leaks sensitive fields: %s", rec.Body.String())
	}

	t.Run("duplicate phone conflicts", func(t *testing.T) {
		dup := strings.Replace(registerBody, "a@x.com", "b@x.com", 1)
		rec := doJSON(e, http.MethodPost, "/api/users/register", dup)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing field fails", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/users/register", `{"firstName":"Only"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var envelope struct {
			Status string `json:"status"`
			Code   int    `json:"code"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if envelope.Status != "fail" || envelope.Code != http.StatusBadRequest {
			t.Fatalf("expected fail envelope, got %s", rec.Body.String())
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	e := newTestServer()
	doJSON(e, http.MethodPost, "/api/users/register", registerBody)

	rec := doJSON(e, http.MethodPost, "/api/users/login", `{"emailOrPhone":"+1555","password":"Secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sessionCookie(t, rec)

	var envelope struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(envelope.Data) != 0 {
		t.Fatalf("login body must carry no payload, got %v", envelope.Data)
	}
	if strings.Contains(rec.Body.String(), "eyJ") {
		t.Fatalf("token must not appear in the response body")
	}

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/users/login", `{"emailOrPhone":"a@x.com","password":"nope"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("unknown identifier", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/users/login", `{"emailOrPhone":"nobody@x.com","password":"Secret1"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestLogoutEndpoint(t *testing.T) {
	e := newTestServer()
	doJSON(e, http.MethodPost, "/api/users/register", registerBody)
	login := doJSON(e, http.MethodPost, "/api/users/login", `{"emailOrPhone":"a@x.com","password":"Secret1"}`)
	cookie := sessionCookie(t, login)

	rec := doJSON(e, http.MethodPost, "/api/users/logout", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected the session cookie to be cleared")
	}

	t.Run("without credential yields the same 400 every time", func(t *testing.T) {
		first := doJSON(e, http.MethodPost, "/api/users/logout", "")
		second := doJSON(e, http.MethodPost, "/api/users/logout", "")
		if first.Code != http.StatusBadRequest || second.Code != http.StatusBadRequest {
			t.Fatalf("expected 400/400, got %d/%d", first.Code, second.Code)
		}
		if first.Body.String() != second.Body.String() {
			t.Fatalf("repeated logout responses differ: %s vs %s", first.Body.String(), second.Body.String())
		}
	})
}

func TestProfileEndpoint(t *testing.T) {
	e := newTestServer()
	doJSON(e, http.MethodPost, "/api/users/register", registerBody)
	login := doJSON(e, http.MethodPost, "/api/users/login", `{"emailOrPhone":"+1555","password":"Secret1"}`)
	cookie := sessionCookie(t, login)

	rec := doJSON(e, http.MethodGet, "/profile", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if envelope.Data["firstName"] != "Jane" || envelope.Data["lastName"] != "Doe" {
		t.Fatalf("unexpected profile payload: %v", envelope.Data)
	}
	lowered := strings.ToLower(rec.Body.String())
	if strings.Contains(lowered, "password") || strings.Contains(lowered, "reset") {
		t.Fatalf("profile response leaks sensitive fields: %s", rec.Body.String())
	}

	t.Run("missing credential", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/profile", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		bad := *cookie
		bad.Value = cookie.Value + "x"
		rec := doJSON(e, http.MethodGet, "/profile", "", &bad)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("bearer header also accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+cookie.Value)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 via bearer header, got %d", rec.Code)
		}
	})
}

func TestResetFlowEndpoints(t *testing.T) {
	repo := newMemoryUserRepo()
	jwtManager := util.NewJWTManager("test-secret", 24*time.Hour)
	mailer := &captureMailer{}
	auth := service.NewAuthService(repo, mailer, jwtManager, 10*time.Minute)
	profiles := service.NewProfileService(repo)

	e := NewRouter([]string{"*"})
	NewAuthHandler(auth, false).Register(e)
	NewProfileHandler(profiles).Register(e, auth)

	doJSON(e, http.MethodPost, "/api/users/register", registerBody)

	rec := doJSON(e, http.MethodPost, "/api/users/forgotPassword", `{"emailOrPhone":"a@x.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mailer.code == "" {
		t.Fatalf("expected the mailer to receive a code")
	}

	rec = doJSON(e, http.MethodPost, "/api/users/verifyResetCode", `{"resetCode":"`+mailer.code+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPut, "/api/users/resetPassword", `{"newPassword":"NewSecret2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/users/login", `{"emailOrPhone":"a@x.com","password":"NewSecret2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password expected 200, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodPost, "/api/users/login", `{"emailOrPhone":"a@x.com","password":"Secret1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login with old password expected 401, got %d", rec.Code)
	}

	t.Run("wrong code", func(t *testing.T) {
		doJSON(e, http.MethodPost, "/api/users/forgotPassword", `{"emailOrPhone":"a@x.com"}`)
		rec := doJSON(e, http.MethodPost, "/api/users/verifyResetCode", `{"resetCode":"000000"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

type captureMailer struct {
	code string
	err  error
}

func (m *captureMailer) SendResetCode(ctx context.Context, user *domain.User, code string) error {
	m.code = code
	return m.err
}

func TestUnknownRouteEnvelope(t *testing.T) {
	e := newTestServer()
	rec := doJSON(e, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if envelope.Status != "fail" || envelope.Code != http.StatusNotFound || envelope.Message != "Page not found" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}
