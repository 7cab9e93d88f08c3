package wire

import (
	"net/http"

	"feedback-portal/internal/adaptor"
	"feedback-portal/internal/dto/request"
	"feedback-portal/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	auth func(http.Handler) http.Handler,
	active func(http.Handler) http.Handler,
	limiter *middleware.IPRateLimiter,
) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(limiter.Middleware)

		// ==================== PUBLIC ROUTES ====================
		r.With(middleware.ValidateBody[request.RegisterRequest]()).Post("/register", authHandler.Register)
		r.With(middleware.ValidateBody[request.LoginRequest]()).Post("/login", authHandler.Login)
		r.With(middleware.ValidateBody[request.RefreshRequest]()).Post("/refresh", authHandler.Refresh)
		r.With(middleware.ValidateBody[request.VerifyEmailRequest]()).Post("/verify-email", authHandler.VerifyEmail)
		r.Get("/verify-email/{token}", authHandler.VerifyEmailLink)
		r.With(middleware.ValidateBody[request.EmailRequest]()).Post("/resend-verification", authHandler.ResendVerification)
		r.With(middleware.ValidateBody[request.EmailRequest]()).Post("/forgot-password", authHandler.ForgotPassword)
		r.With(middleware.ValidateBody[request.ResetPasswordRequest]()).Post("/reset-password", authHandler.ResetPassword)

		// ==================== PROTECTED ROUTES ====================
		r.With(auth).Post("/logout", authHandler.Logout)
		r.With(auth, active, middleware.ValidateBody[request.ChangePasswordRequest]()).Post("/change-password", authHandler.ChangePassword)
	})
}
