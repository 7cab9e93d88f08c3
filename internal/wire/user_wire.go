package wire

import (
	"net/http"

	"feedback-portal/internal/adaptor"
	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/dto/request"
	"feedback-portal/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures profile routes and admin user management
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth func(http.Handler) http.Handler,
	active func(http.Handler) http.Handler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED USER ROUTES ====================
	r.With(auth, active).Get("/api/users/profile", userHandler.GetProfile)
	r.With(auth, active, middleware.ValidateBody[request.UpdateProfileRequest]()).Put("/api/users/profile", userHandler.UpdateProfile)

	// ==================== ADMIN ROUTES ====================
	r.With(
		auth,
		middleware.RequireRole(repo.User, log, entity.RoleAdmin),
	).Route("/api/admin/users", func(r chi.Router) {
		r.Get("/", userHandler.GetAllUsers)
		r.Delete("/{id}", userHandler.DeleteUser)
		r.With(middleware.ValidateBody[request.UpdateUserStatusRequest]()).Patch("/{id}/status", userHandler.UpdateStatus)
		r.With(middleware.ValidateBody[request.UpdateUserRoleRequest]()).Patch("/{id}/role", userHandler.UpdateRole)
	})
}
