package adaptor

import (
	"net/http"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/dto/request"
	"feedback-portal/internal/usecase"
	"feedback-portal/pkg/utils"

	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), actor.ID)
	if err != nil {
		handleServiceError(w, r, h.log, err, "get profile")
		return
	}

	utils.ResponseSuccess(w, "Profile retrieved successfully", profile)
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	req, _ := utils.GetBody[request.UpdateProfileRequest](r.Context())

	profile, err := h.service.UpdateProfile(r.Context(), actor.ID, req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "update profile")
		return
	}

	utils.ResponseSuccess(w, "Profile updated successfully", profile)
}

// GetAllUsers handles GET /api/admin/users?page=1&perPage=10
func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	req := request.PaginatedRequest{
		Page:    utils.ParseInt(r.URL.Query().Get("page"), 1),
		PerPage: utils.ParseInt(r.URL.Query().Get("perPage"), 10),
	}

	users, err := h.service.GetAllUsers(r.Context(), &req)
	if err != nil {
		handleServiceError(w, r, h.log, err, "get all users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	id, ok := pathID(r)
	if !ok {
		utils.ResponseError(w, utils.ErrBadRequest("Invalid user ID"))
		return
	}

	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, h.log, err, "delete user")
		return
	}

	utils.ResponseSuccess(w, "User deleted successfully", nil)
}

// UpdateStatus handles PATCH /api/admin/users/{id}/status
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	id, ok := pathID(r)
	if !ok {
		utils.ResponseError(w, utils.ErrBadRequest("Invalid user ID"))
		return
	}
	req, _ := utils.GetBody[request.UpdateUserStatusRequest](r.Context())

	user, err := h.service.SetUserActive(r.Context(), actor, id, *req.IsActive)
	if err != nil {
		handleServiceError(w, r, h.log, err, "update user status")
		return
	}

	utils.ResponseSuccess(w, "User status updated", user)
}

// UpdateRole handles PATCH /api/admin/users/{id}/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	id, ok := pathID(r)
	if !ok {
		utils.ResponseError(w, utils.ErrBadRequest("Invalid user ID"))
		return
	}
	req, _ := utils.GetBody[request.UpdateUserRoleRequest](r.Context())

	user, err := h.service.SetUserRole(r.Context(), actor, id, entity.UserRole(req.Role))
	if err != nil {
		handleServiceError(w, r, h.log, err, "update user role")
		return
	}

	utils.ResponseSuccess(w, "User role updated", user)
}
