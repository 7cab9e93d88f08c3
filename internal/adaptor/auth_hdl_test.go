package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedback-portal/internal/dto/request"
	"feedback-portal/internal/dto/response"
	"feedback-portal/internal/usecase"
	"feedback-portal/pkg/middleware"
	"feedback-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubAuth embeds the interface so tests only implement what they call.
type stubAuth struct {
	usecase.AuthService
	register func(*request.RegisterRequest) (*response.AuthResponse, error)
	verify   func(string) (*response.VerifyEmailResponse, error)
	forgot   func(string) error
}

func (s *stubAuth) Register(_ context.Context, req *request.RegisterRequest, _ usecase.ClientInfo) (*response.AuthResponse, error) {
	return s.register(req)
}

func (s *stubAuth) VerifyEmail(_ context.Context, token string) (*response.VerifyEmailResponse, error) {
	return s.verify(token)
}

func (s *stubAuth) ForgotPassword(_ context.Context, email string) error {
	return s.forgot(email)
}

func serve(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, utils.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewBufferString(body)))

	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestRegisterHandler(t *testing.T) {
	svc := &stubAuth{register: func(req *request.RegisterRequest) (*response.AuthResponse, error) {
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "A", req.FirstName)
		return &response.AuthResponse{
			User:   response.UserResponse{ID: uuid.NewString(), Email: req.Email},
			Tokens: response.TokensResponse{AccessToken: "access", RefreshToken: "refresh"},
		}, nil
	}}
	h := NewAuthHandler(svc, zaptest.NewLogger(t))
	route := middleware.ValidateBody[request.RegisterRequest]()(http.HandlerFunc(h.Register))

	rec, resp := serve(t, route, http.MethodPost, "/api/auth/register",
		`{"email":"a@b.com","password":"Aa1!aaaa","firstName":"A","lastName":"B"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.NotContains(t, rec.Body.String(), "password")

	data := resp.Data.(map[string]any)
	assert.Contains(t, data, "user")
	assert.Equal(t, "access", data["tokens"].(map[string]any)["accessToken"])
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "duplicate email", err: utils.ErrDuplicateEmail(), status: http.StatusConflict, code: utils.CodeDuplicateEmail},
		{name: "registration failed", err: utils.ErrRegistrationFailed(), status: http.StatusInternalServerError, code: utils.CodeRegistrationFailed},
		{name: "unexpected", err: errors.New("pq: connection refused"), status: http.StatusInternalServerError, code: utils.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubAuth{register: func(*request.RegisterRequest) (*response.AuthResponse, error) {
				return nil, tt.err
			}}
			h := NewAuthHandler(svc, zaptest.NewLogger(t))
			route := middleware.ValidateBody[request.RegisterRequest]()(http.HandlerFunc(h.Register))

			rec, resp := serve(t, route, http.MethodPost, "/", `{"email":"a@b.com","password":"Aa1!aaaa"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestVerifyEmailLink(t *testing.T) {
	svc := &stubAuth{verify: func(token string) (*response.VerifyEmailResponse, error) {
		if token != "good" {
			return nil, utils.ErrInvalidToken()
		}
		return &response.VerifyEmailResponse{AlreadyVerified: true}, nil
	}}
	r := chi.NewRouter()
	r.Get("/verify-email/{token}", NewAuthHandler(svc, zaptest.NewLogger(t)).VerifyEmailLink)

	rec, resp := serve(t, r, http.MethodGet, "/verify-email/good", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email already verified", resp.Message)

	rec, resp = serve(t, r, http.MethodGet, "/verify-email/bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, utils.CodeInvalidToken, resp.Error)
}

func TestForgotPasswordIsGeneric(t *testing.T) {
	svc := &stubAuth{forgot: func(string) error { return nil }}
	h := NewAuthHandler(svc, zaptest.NewLogger(t))
	route := middleware.ValidateBody[request.EmailRequest]()(http.HandlerFunc(h.ForgotPassword))

	rec, resp := serve(t, route, http.MethodPost, "/", `{"email":"ghost@b.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, genericEmailMessage, resp.Message)
}
