package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/pkg/metrics"
	"feedback-portal/pkg/utils"

	"go.uber.org/zap"
)

const (
	purposeVerification = "verification"
	purposeReset        = "reset"
)

// TokenService issues and consumes single use email tokens. Raw tokens only
// leave through the returned string; the database holds their digest.
type TokenService interface {
	IssueVerification(ctx context.Context, user *entity.User) (string, error)
	IssueReset(ctx context.Context, user *entity.User) (string, error)
	ConsumeVerification(ctx context.Context, token string) (*VerificationResult, error)
	ConsumeReset(ctx context.Context, token, passwordHash string) (*entity.User, error)
}

type VerificationResult struct {
	User            *entity.User
	AlreadyVerified bool
}

type tokenService struct {
	repo   *repository.Repository
	config utils.TokenConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewTokenService(repo *repository.Repository, config utils.TokenConfig, log *zap.Logger) TokenService {
	return &tokenService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "token")),
		now:    time.Now,
	}
}

// IssueVerification replaces any outstanding verification token of user.
// Re-issuing revokes the previous token: only the newest digest is stored.
func (s *tokenService) IssueVerification(ctx context.Context, user *entity.User) (string, error) {
	token, err := utils.GenerateToken()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(s.config.VerificationTTL)
	if err := s.repo.User.SetVerificationToken(ctx, user.ID, utils.HashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("issue verification token: %w", err)
	}

	metrics.TokensIssued.WithLabelValues(purposeVerification).Inc()
	return token, nil
}

// IssueReset replaces any outstanding reset token of user, revoking the
// previous one.
func (s *tokenService) IssueReset(ctx context.Context, user *entity.User) (string, error) {
	token, err := utils.GenerateToken()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(s.config.ResetTTL)
	if err := s.repo.User.SetResetToken(ctx, user.ID, utils.HashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}

	metrics.TokensIssued.WithLabelValues(purposeReset).Inc()
	return token, nil
}

// ConsumeVerification marks the token owner verified. Unknown, expired and
// inactive-account tokens all yield the same INVALID_TOKEN error. Presenting
// an already consumed token succeeds with AlreadyVerified under the confirm
// policy.
func (s *tokenService) ConsumeVerification(ctx context.Context, token string) (*VerificationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.TokensConsumed.WithLabelValues(purposeVerification, "invalid").Inc()
		return nil, utils.ErrInvalidToken()
	}
	digest := utils.HashToken(token)

	user, err := s.repo.User.ConsumeVerificationToken(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	if user != nil {
		metrics.TokensConsumed.WithLabelValues(purposeVerification, "consumed").Inc()
		s.log.Info("Email verified", zap.String("user_id", user.ID.String()))
		return &VerificationResult{User: user}, nil
	}

	if s.config.ReverifyPolicy == utils.ReverifyConfirm {
		user, err = s.repo.User.FindByConsumedVerificationToken(ctx, digest)
		if err != nil {
			return nil, fmt.Errorf("find consumed verification token: %w", err)
		}
		if user != nil {
			metrics.TokensConsumed.WithLabelValues(purposeVerification, "already_verified").Inc()
			return &VerificationResult{User: user, AlreadyVerified: true}, nil
		}
	}

	metrics.TokensConsumed.WithLabelValues(purposeVerification, "invalid").Inc()
	return nil, utils.ErrInvalidToken()
}

// ConsumeReset stores passwordHash for the token owner and burns the token.
func (s *tokenService) ConsumeReset(ctx context.Context, token, passwordHash string) (*entity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.TokensConsumed.WithLabelValues(purposeReset, "invalid").Inc()
		return nil, utils.ErrInvalidToken()
	}

	user, err := s.repo.User.ConsumeResetToken(ctx, utils.HashToken(token), passwordHash)
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	if user == nil {
		metrics.TokensConsumed.WithLabelValues(purposeReset, "invalid").Inc()
		return nil, utils.ErrInvalidToken()
	}

	metrics.TokensConsumed.WithLabelValues(purposeReset, "consumed").Inc()
	return user, nil
}
