package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/notify"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type discardNotifier struct{}

func (discardNotifier) Notify(notify.Kind, notify.Recipient, notify.Payload) {}

func newTestApp(t *testing.T, db Pinger) *App {
	t.Helper()
	config := &utils.Config{
		JWT:       utils.JWTConfig{Secret: "test-secret"},
		RateLimit: utils.RateLimitConfig{RPS: 100, Burst: 100},
		CORS:      utils.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	app := Wiring(&repository.Repository{}, db, config, discardNotifier{}, zaptest.NewLogger(t))
	t.Cleanup(app.Limiter.Stop)
	return app
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestApp(t, pinger{}).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newTestApp(t, pinger{err: errors.New("down")}).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestApp(t, pinger{}).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "feedback_")
}

func TestRegisterValidationEnvelope(t *testing.T) {
	payload := []byte(`{"email":"not-an-email","password":"weak","firstName":"A"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	newTestApp(t, pinger{}).Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation failed", body["message"])

	fields := map[string]bool{}
	for _, e := range body["errors"].([]any) {
		fields[e.(map[string]any)["field"].(string)] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.False(t, fields["firstName"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	app := newTestApp(t, pinger{})
	for _, path := range []string{"/api/feedback", "/api/users/profile", "/api/admin/users"} {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	config := &utils.Config{
		JWT:       utils.JWTConfig{Secret: "test-secret"},
		RateLimit: utils.RateLimitConfig{RPS: 0.001, Burst: 1},
	}
	app := Wiring(&repository.Repository{}, pinger{}, config, discardNotifier{}, zaptest.NewLogger(t))
	defer app.Limiter.Stop()

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{}`)))
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestForwardedHeadersDoNotBypassRateLimit(t *testing.T) {
	tests := []struct {
		name        string
		trustProxy  bool
		wantLimited bool
	}{
		{name: "untrusted headers are ignored", trustProxy: false, wantLimited: true},
		{name: "trusted proxy keys on forwarded address", trustProxy: true, wantLimited: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &utils.Config{
				App:       utils.AppConfig{TrustProxy: tt.trustProxy},
				JWT:       utils.JWTConfig{Secret: "test-secret"},
				RateLimit: utils.RateLimitConfig{RPS: 0.001, Burst: 1},
			}
			app := Wiring(&repository.Repository{}, pinger{}, config, discardNotifier{}, zaptest.NewLogger(t))
			defer app.Limiter.Stop()

			limited := 0
			for i := range 20 {
				req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{}`)))
				req.RemoteAddr = "10.0.0.1:1234"
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
				rec := httptest.NewRecorder()
				app.Router.ServeHTTP(rec, req)
				if rec.Code == http.StatusTooManyRequests {
					limited++
				}
			}

			if tt.wantLimited {
				assert.Equal(t, 19, limited)
			} else {
				assert.Zero(t, limited)
			}
		})
	}
}

type storedUsers struct {
	repository.UserRepository
	users map[uuid.UUID]*entity.User
}

func (s storedUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return s.users[id], nil
}

func TestDeactivatedUserLosesAccessBeforeTokenExpiry(t *testing.T) {
	id := uuid.New()
	user := &entity.User{Base: entity.Base{ID: id}, Role: entity.RoleUser, IsActive: false}
	config := &utils.Config{
		JWT:       utils.JWTConfig{Secret: "test-secret"},
		RateLimit: utils.RateLimitConfig{RPS: 100, Burst: 100},
	}
	repo := &repository.Repository{User: storedUsers{users: map[uuid.UUID]*entity.User{id: user}}}
	app := Wiring(repo, pinger{}, config, discardNotifier{}, zaptest.NewLogger(t))
	defer app.Limiter.Stop()

	token, _, err := utils.GenerateAccessToken(id, string(entity.RoleUser), []byte("test-secret"), time.Minute)
	require.NoError(t, err)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/feedback"},
		{http.MethodPost, "/api/feedback"},
		{http.MethodGet, "/api/users/profile"},
		{http.MethodPost, "/api/auth/change-password"},
	} {
		req := httptest.NewRequest(route.method, route.path, bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, route.path)
		assert.Equal(t, utils.CodeAccountInactive, decode(t, rec)["error"], route.path)
	}
}
