package usecase

import (
	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/notify"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier queues an email that must never fail the calling operation.
type Notifier interface {
	Notify(kind notify.Kind, to notify.Recipient, payload notify.Payload)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role entity.UserRole
}

// ClientInfo describes the client opening a session.
type ClientInfo struct {
	UserAgent string
	IP        string
}

type Service struct {
	Auth     AuthService
	Token    TokenService
	User     UserService
	Feedback FeedbackService
}

func NewService(repo *repository.Repository, config *utils.Config, notifier Notifier, log *zap.Logger) *Service {
	tokens := NewTokenService(repo, config.Token, log)
	return &Service{
		Auth:     NewAuthService(repo, tokens, notifier, config, log),
		Token:    tokens,
		User:     NewUserService(repo, log),
		Feedback: NewFeedbackService(repo, notifier, log),
	}
}

func recipientOf(user *entity.User) notify.Recipient {
	r := notify.Recipient{Email: user.Email, Username: user.Username}
	if user.FirstName != nil {
		r.FirstName = *user.FirstName
	}
	return r
}
