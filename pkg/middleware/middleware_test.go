package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestValidateBody(t *testing.T) {
	var got *credentials
	handler := ValidateBody[credentials]()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = utils.GetBody[credentials](r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{name: "valid", body: `{"email":"a@b.com","password":"Aa1!aaaa"}`, status: http.StatusNoContent},
		{name: "empty body", body: ``, status: http.StatusBadRequest, fields: []string{"body"}},
		{name: "malformed", body: `{"email":`, status: http.StatusBadRequest, fields: []string{"body"}},
		{name: "all violations", body: `{"email":"x","password":"short"}`, status: http.StatusBadRequest, fields: []string{"email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body)))

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				require.NotNil(t, got)
				assert.Equal(t, "a@b.com", got.Email)
				return
			}

			resp := envelope(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, "Validation failed", resp.Message)

			var fields []string
			for _, e := range resp.Errors.([]any) {
				fields = append(fields, e.(map[string]any)["field"].(string))
			}
			assert.ElementsMatch(t, tt.fields, fields)
		})
	}
}

func TestAuth(t *testing.T) {
	secret := []byte("secret")
	id := uuid.New()
	token, _, err := utils.GenerateAccessToken(id, "user", secret, time.Minute)
	require.NoError(t, err)

	var seen uuid.UUID
	handler := Auth(secret, zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = utils.GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + token, status: http.StatusOK},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, id, seen)
}

type userLookup struct {
	repository.UserRepository
	user *entity.User
	err  error
}

func (u userLookup) FindByID(context.Context, uuid.UUID) (*entity.User, error) {
	return u.user, u.err
}

func TestRequireRole(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name   string
		lookup userLookup
		status int
	}{
		{name: "agent allowed", lookup: userLookup{user: &entity.User{Base: entity.Base{ID: id}, Role: entity.RoleAgent, IsActive: true}}, status: http.StatusOK},
		{name: "user denied", lookup: userLookup{user: &entity.User{Base: entity.Base{ID: id}, Role: entity.RoleUser, IsActive: true}}, status: http.StatusForbidden},
		{name: "inactive denied", lookup: userLookup{user: &entity.User{Base: entity.Base{ID: id}, Role: entity.RoleAdmin}}, status: http.StatusForbidden},
		{name: "missing user", lookup: userLookup{}, status: http.StatusForbidden},
		{name: "lookup error", lookup: userLookup{err: errors.New("db down")}, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.lookup, zaptest.NewLogger(t), entity.RoleAgent, entity.RoleAdmin)(http.HandlerFunc(ok))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(utils.SetUserContext(req.Context(), id, "admin"))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		handler := RequireRole(userLookup{}, zaptest.NewLogger(t), entity.RoleAdmin)(http.HandlerFunc(ok))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireActive(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name   string
		lookup userLookup
		status int
		code   string
	}{
		{name: "active user", lookup: userLookup{user: &entity.User{Base: entity.Base{ID: id}, Role: entity.RoleUser, IsActive: true}}, status: http.StatusOK},
		{name: "deactivated user", lookup: userLookup{user: &entity.User{Base: entity.Base{ID: id}, Role: entity.RoleUser}}, status: http.StatusForbidden, code: utils.CodeAccountInactive},
		{name: "deleted user", lookup: userLookup{}, status: http.StatusForbidden, code: utils.CodeAccountInactive},
		{name: "lookup error", lookup: userLookup{err: errors.New("db down")}, status: http.StatusInternalServerError, code: utils.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireActive(tt.lookup, zaptest.NewLogger(t))(http.HandlerFunc(ok))
			req := httptest.NewRequest(http.MethodPost, "/api/feedback", nil)
			req = req.WithContext(utils.SetUserContext(req.Context(), id, "user"))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, envelope(t, rec).Error)
			}
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		handler := RequireActive(userLookup{}, zaptest.NewLogger(t))(http.HandlerFunc(ok))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(utils.RateLimitConfig{RPS: 0.001, Burst: 2})
	defer rl.Stop()
	handler := rl.Middleware(http.HandlerFunc(ok))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
	assert.Equal(t, 2, rl.Len())

	rl.removeStale(time.Now().Add(10 * time.Minute))
	assert.Equal(t, 0, rl.Len())
}

func TestRecover(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := Recover(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, utils.CodeInternal, envelope(t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Equal(t, 1, logs.Len())
}

func TestCORS(t *testing.T) {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantOrigin  string
		wantCreds   string
		wantMethods bool
		wantReached bool
	}{
		{name: "allowed origin", allowed: []string{"https://app.example.com"}, method: http.MethodGet, origin: "https://app.example.com", wantOrigin: "https://app.example.com", wantCreds: "true", wantReached: true},
		{name: "disallowed origin", allowed: []string{"https://app.example.com"}, method: http.MethodGet, origin: "https://evil.example", wantReached: true},
		{name: "allowed preflight", allowed: []string{"https://app.example.com"}, method: http.MethodOptions, origin: "https://app.example.com", preflight: true, wantOrigin: "https://app.example.com", wantCreds: "true", wantMethods: true},
		{name: "disallowed preflight", allowed: []string{"https://app.example.com"}, method: http.MethodOptions, origin: "https://evil.example", preflight: true},
		{name: "plain options passes through", allowed: []string{"https://app.example.com"}, method: http.MethodOptions, wantReached: true},
		{name: "wildcard never sends credentials", allowed: []string{"*"}, method: http.MethodGet, origin: "https://evil.example", wantOrigin: "*", wantReached: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(tt.method, "/api/feedback", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rec.Header().Get("Access-Control-Allow-Credentials"))
			if tt.wantMethods {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
			}
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}

func TestLoggerSetsRequestID(t *testing.T) {
	var seen string
	handler := Logger(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = utils.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
