package repository

import (
	"feedback-portal/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User     UserRepository
	Session  SessionRepository
	Category CategoryRepository
	Feedback FeedbackRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(db, log),
		Session:  NewSessionRepository(db, log),
		Category: NewCategoryRepository(db, log),
		Feedback: NewFeedbackRepository(db, log),
	}
}
