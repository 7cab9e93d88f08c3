package adaptor

import (
	"net/http"

	"feedback-portal/internal/dto/request"
	"feedback-portal/internal/usecase"
	"feedback-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const genericEmailMessage = "If an account exists for this email, a message has been sent"

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, _ := utils.GetBody[request.RegisterRequest](r.Context())

	resp, err := h.service.Register(r.Context(), req, clientInfo(r))
	if err != nil {
		handleServiceError(w, r, h.log, err, "register")
		return
	}

	utils.ResponseCreated(w, "Registration successful. Please check your email to verify your account.", resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, _ := utils.GetBody[request.LoginRequest](r.Context())

	resp, err := h.service.Login(r.Context(), req, clientInfo(r))
	if err != nil {
		handleServiceError(w, r, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", resp)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	req, _ := utils.GetBody[request.RefreshRequest](r.Context())

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, h.log, err, "refresh")
		return
	}

	utils.ResponseSuccess(w, "Token refreshed", resp)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), actor.ID); err != nil {
		handleServiceError(w, r, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logout successful", nil)
}

// VerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	req, _ := utils.GetBody[request.VerifyEmailRequest](r.Context())
	h.verify(w, r, req.Token)
}

// VerifyEmailLink handles GET /api/auth/verify-email/{token}
func (h *AuthHandler) VerifyEmailLink(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, chi.URLParam(r, "token"))
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request, token string) {
	resp, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, h.log, err, "verify email")
		return
	}

	message := "Email verified successfully"
	if resp.AlreadyVerified {
		message = "Email already verified"
	}
	utils.ResponseSuccess(w, message, resp)
}

// ResendVerification handles POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	req, _ := utils.GetBody[request.EmailRequest](r.Context())

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		handleServiceError(w, r, h.log, err, "resend verification")
		return
	}

	utils.ResponseSuccess(w, genericEmailMessage, nil)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, _ := utils.GetBody[request.EmailRequest](r.Context())

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		handleServiceError(w, r, h.log, err, "forgot password")
		return
	}

	utils.ResponseSuccess(w, genericEmailMessage, nil)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	req, _ := utils.GetBody[request.ResetPasswordRequest](r.Context())

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		handleServiceError(w, r, h.log, err, "reset password")
		return
	}

	utils.ResponseSuccess(w, "Password has been reset. Please log in with your new password.", nil)
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	req, _ := utils.GetBody[request.ChangePasswordRequest](r.Context())

	if err := h.service.ChangePassword(r.Context(), actor.ID, req); err != nil {
		handleServiceError(w, r, h.log, err, "change password")
		return
	}

	utils.ResponseSuccess(w, "Password changed successfully", nil)
}
