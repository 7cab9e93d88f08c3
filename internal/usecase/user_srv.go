package usecase

import (
	"context"
	"fmt"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/dto/request"
	"feedback-portal/internal/dto/response"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error)
	GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error
	SetUserActive(ctx context.Context, actor Actor, userID uuid.UUID, active bool) (*response.UserResponse, error)
	SetUserRole(ctx context.Context, actor Actor, userID uuid.UUID, role entity.UserRole) (*response.UserResponse, error)
}

type userService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewUserService(repo *repository.Repository, log *zap.Logger) UserService {
	return &userService{
		repo: repo,
		log:  log.With(zap.String("service", "user")),
	}
}

func (us *userService) find(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := us.repo.User.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrNotFound("User not found")
	}
	return user, nil
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = optional(req.FirstName)
	user.LastName = optional(req.LastName)
	user.Phone = optional(req.Phone)
	user.Website = optional(req.Website)
	user.PostalCode = optional(req.PostalCode)
	if user.BirthDate, err = parseDate(req.BirthDate); err != nil {
		return nil, utils.ErrBadRequest("birthDate must use the format YYYY-MM-DD")
	}

	if err := us.repo.User.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	us.log.Info("Profile updated", zap.String("user_id", userID.String()))
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	// Set defaults
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	// Get users with pagination
	users, err := us.repo.User.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		us.log.Error("Failed to get all users",
			zap.Error(err),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("list users: %w", err)
	}

	// Get total count
	total, err := us.repo.User.CountAll(ctx)
	if err != nil {
		us.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("count users: %w", err)
	}

	return response.NewPaginatedResponse(response.UsersToResponse(users), req.Page, req.PerPage, total), nil
}

func (us *userService) DeleteUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	if actor.ID == userID {
		return utils.ErrBadRequest("You cannot delete your own account")
	}
	if _, err := us.find(ctx, userID); err != nil {
		return err
	}

	if err := us.repo.User.Delete(ctx, userID); err != nil {
		return err
	}
	if err := us.repo.Session.RevokeAllUserSessions(ctx, userID); err != nil {
		us.log.Warn("Failed to revoke sessions of deleted user", zap.Error(err), zap.String("user_id", userID.String()))
	}

	us.log.Info("User deleted",
		zap.String("user_id", userID.String()),
		zap.String("by", actor.ID.String()))
	return nil
}

func (us *userService) SetUserActive(ctx context.Context, actor Actor, userID uuid.UUID, active bool) (*response.UserResponse, error) {
	if actor.ID == userID && !active {
		return nil, utils.ErrBadRequest("You cannot deactivate your own account")
	}
	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := us.repo.User.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}
	if !active {
		if err := us.repo.Session.RevokeAllUserSessions(ctx, userID); err != nil {
			us.log.Warn("Failed to revoke sessions of deactivated user", zap.Error(err), zap.String("user_id", userID.String()))
		}
	}

	us.log.Info("User status changed",
		zap.String("user_id", userID.String()),
		zap.Bool("active", active),
		zap.String("by", actor.ID.String()))

	user.IsActive = active
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) SetUserRole(ctx context.Context, actor Actor, userID uuid.UUID, role entity.UserRole) (*response.UserResponse, error) {
	if actor.ID == userID && role != entity.RoleAdmin {
		return nil, utils.ErrBadRequest("You cannot change your own role")
	}
	user, err := us.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := us.repo.User.SetRole(ctx, userID, role); err != nil {
		return nil, err
	}

	us.log.Info("User role changed",
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
		zap.String("by", actor.ID.String()))

	user.Role = role
	resp := response.UserToResponse(user)
	return &resp, nil
}
