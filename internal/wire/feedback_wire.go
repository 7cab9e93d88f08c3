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

func wireFeedback(
	r chi.Router,
	feedbackHandler *adaptor.FeedbackHandler,
	auth func(http.Handler) http.Handler,
	active func(http.Handler) http.Handler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Get("/api/categories", feedbackHandler.Categories)

	r.With(auth).Route("/api/feedback", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(active)
			r.With(middleware.ValidateBody[request.CreateFeedbackRequest]()).Post("/", feedbackHandler.Create)
			r.Get("/", feedbackHandler.List)
			r.Get("/{id}", feedbackHandler.Get)
		})

		// Staff only
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(repo.User, log, entity.RoleAgent, entity.RoleAdmin))
			r.With(middleware.ValidateBody[request.AssignFeedbackRequest]()).Patch("/{id}/assign", feedbackHandler.Assign)
			r.With(middleware.ValidateBody[request.UpdateFeedbackStatusRequest]()).Patch("/{id}/status", feedbackHandler.UpdateStatus)
		})
	})
}
