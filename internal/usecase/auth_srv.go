package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/dto/request"
	"feedback-portal/internal/dto/response"
	"feedback-portal/internal/notify"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest, client ClientInfo) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest, client ClientInfo) (*response.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*response.TokensResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, token string) (*response.VerifyEmailResponse, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error
}

type authService struct {
	repo     *repository.Repository
	tokens   TokenService
	notifier Notifier
	config   *utils.Config
	log      *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	tokens TokenService,
	notifier Notifier,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		config:   config,
		log:      log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest, client ClientInfo) (*response.AuthResponse, error) {
	email := repository.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, utils.ErrMissingFields("Email and password are required")
	}

	// 1. Email must be unused
	existing, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err))
		return nil, utils.ErrRegistrationFailed()
	}
	if existing != nil {
		return nil, utils.ErrDuplicateEmail()
	}

	// 2. Explicit usernames must be free, derived ones get a suffix
	username, err := s.resolveUsername(ctx, req.Username, email)
	if err != nil {
		return nil, err
	}

	// 3. Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, utils.ErrRegistrationFailed()
	}

	// 4. Build user
	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    optional(req.FirstName),
		LastName:     optional(req.LastName),
		Phone:        optional(req.Phone),
		Website:      optional(req.Website),
		PostalCode:   optional(req.PostalCode),
		Role:         entity.RoleUser,
		IsActive:     true,
	}
	if user.BirthDate, err = parseDate(req.BirthDate); err != nil {
		return nil, utils.ErrBadRequest("birthDate must use the format YYYY-MM-DD")
	}

	// 5. Save
	if err := s.repo.User.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, utils.ErrDuplicateEmail()
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, utils.ErrDuplicateUsername()
		}
		s.log.Error("Failed to create user", zap.Error(err))
		return nil, utils.ErrRegistrationFailed()
	}

	// 6. Verification email, never fails registration
	if token, err := s.tokens.IssueVerification(ctx, user); err != nil {
		s.log.Error("Failed to issue verification token", zap.Error(err), zap.String("user_id", user.ID.String()))
	} else {
		s.notifier.Notify(notify.KindVerification, recipientOf(user), notify.Payload{Token: token})
	}

	// 7. Sign in
	tokens, err := s.openSession(ctx, user, client)
	if err != nil {
		s.log.Warn("Failed to create session after register",
			zap.Error(err), zap.String("user_id", user.ID.String()))
		tokens = &response.TokensResponse{}
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return &response.AuthResponse{User: response.UserToResponse(user), Tokens: *tokens}, nil
}

var usernameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

func (s *authService) resolveUsername(ctx context.Context, requested, email string) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		existing, err := s.repo.User.FindByUsername(ctx, requested)
		if err != nil {
			s.log.Error("Failed to check username", zap.Error(err))
			return "", utils.ErrRegistrationFailed()
		}
		if existing != nil {
			return "", utils.ErrDuplicateUsername()
		}
		return requested, nil
	}

	local, _, _ := strings.Cut(email, "@")
	base := usernameUnsafe.ReplaceAllString(local, "")
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 25 {
		base = base[:25]
	}

	candidate := base
	for i := 1; i <= 20; i++ {
		existing, err := s.repo.User.FindByUsername(ctx, candidate)
		if err != nil {
			s.log.Error("Failed to check username", zap.Error(err))
			return "", utils.ErrRegistrationFailed()
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	return base + strconv.FormatInt(time.Now().UnixNano()%100000, 10), nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, client ClientInfo) (*response.AuthResponse, error) {
	// 1. Find user
	user, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user for login", zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrInvalidCredentials()
	}

	// 2. Check password
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, utils.ErrInvalidCredentials()
	}

	// 3. Check if user is active
	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, utils.ErrAccountInactive()
	}

	// 4. Create session
	tokens, err := s.openSession(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return &response.AuthResponse{User: response.UserToResponse(user), Tokens: *tokens}, nil
}

func (s *authService) openSession(ctx context.Context, user *entity.User, client ClientInfo) (*response.TokensResponse, error) {
	now := time.Now()
	session := &entity.Session{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
		UserID:     user.ID,
		Token:      utils.GenerateSessionToken(),
		UserAgent:  optional(client.UserAgent),
		IPAddress:  optional(client.IP),
		ExpiresAt:  now.Add(s.config.JWT.RefreshTTL),
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := utils.GenerateAccessToken(user.ID, string(user.Role), []byte(s.config.JWT.Secret), s.config.JWT.AccessTTL)
	if err != nil {
		return nil, err
	}

	return &response.TokensResponse{
		AccessToken:  accessToken,
		RefreshToken: session.Token.String(),
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*response.TokensResponse, error) {
	token, err := uuid.Parse(refreshToken)
	if err != nil {
		return nil, utils.ErrUnauthorized("Invalid or expired refresh token")
	}

	session, err := s.repo.Session.FindValidSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, utils.ErrUnauthorized("Invalid or expired refresh token")
	}

	user, err := s.repo.User.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		if err := s.repo.Session.Revoke(ctx, session.Token); err != nil {
			s.log.Warn("Failed to revoke session", zap.Error(err), zap.String("user_id", session.UserID.String()))
		}
		return nil, utils.ErrUnauthorized("Invalid or expired refresh token")
	}

	accessToken, expiresAt, err := utils.GenerateAccessToken(user.ID, string(user.Role), []byte(s.config.JWT.Secret), s.config.JWT.AccessTTL)
	if err != nil {
		return nil, err
	}

	return &response.TokensResponse{
		AccessToken:  accessToken,
		RefreshToken: session.Token.String(),
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Session.RevokeAllUserSessions(ctx, userID); err != nil {
		return err
	}

	s.log.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*response.VerifyEmailResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, utils.ErrMissingFields("Verification token is required")
	}

	result, err := s.tokens.ConsumeVerification(ctx, token)
	if err != nil {
		return nil, err
	}

	if !result.AlreadyVerified {
		s.notifier.Notify(notify.KindWelcome, recipientOf(result.User), notify.Payload{})
	}

	return &response.VerifyEmailResponse{
		User:            response.UserToResponse(result.User),
		AlreadyVerified: result.AlreadyVerified,
	}, nil
}

// ResendVerification answers the same way whether or not the address is
// known, so the caller learns nothing about registered accounts.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for resend", zap.Error(err))
		return nil
	}
	if user == nil || user.IsEmailVerified || !user.IsActive {
		return nil
	}

	token, err := s.tokens.IssueVerification(ctx, user)
	if err != nil {
		s.log.Error("Failed to reissue verification token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil
	}

	s.notifier.Notify(notify.KindVerification, recipientOf(user), notify.Payload{Token: token})
	return nil
}

// ForgotPassword always succeeds from the caller's point of view.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user for password reset", zap.Error(err))
		return nil
	}
	if user == nil || !user.IsActive {
		return nil
	}

	token, err := s.tokens.IssueReset(ctx, user)
	if err != nil {
		s.log.Error("Failed to issue reset token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil
	}

	s.notifier.Notify(notify.KindPasswordReset, recipientOf(user), notify.Payload{Token: token})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" || req.Password == "" {
		return utils.ErrMissingFields("Token and password are required")
	}

	// 1. Hash new password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// 2. Consume token and store hash in one step
	user, err := s.tokens.ConsumeReset(ctx, req.Token, hashedPassword)
	if err != nil {
		return err
	}

	// 3. Sign out everywhere
	if err := s.repo.Session.RevokeAllUserSessions(ctx, user.ID); err != nil {
		s.log.Error("Failed to revoke sessions after reset", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.notifier.Notify(notify.KindPasswordChanged, recipientOf(user), notify.Payload{})
	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error {
	// 1. Current user
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return utils.ErrUnauthorized("Authentication required")
	}

	// 2. Current password must match
	if !utils.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return utils.NewAppError(401, utils.CodeInvalidCredentials, "Current password is incorrect")
	}
	if req.CurrentPassword == req.NewPassword {
		return utils.ErrBadRequest("New password must be different from the current password")
	}

	// 3. Store new hash
	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.User.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return err
	}

	s.notifier.Notify(notify.KindPasswordChanged, recipientOf(user), notify.Payload{})
	s.log.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func parseDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
