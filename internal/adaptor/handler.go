package adaptor

import (
	"net"
	"net/http"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/usecase"
	"feedback-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Feedback *FeedbackHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		User:     NewUserHandler(service.User, log),
		Feedback: NewFeedbackHandler(service.Feedback, log),
	}
}

// handleServiceError writes AppErrors as they are and anything else as a
// generic 500 so internal details never reach the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, operation string) {
	if appErr, ok := utils.AsAppError(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			log.Error(operation+" failed", zap.Error(err), zap.String("request_id", utils.GetRequestID(r.Context())))
		} else {
			log.Warn(operation+" failed", zap.String("code", appErr.Code), zap.String("request_id", utils.GetRequestID(r.Context())))
		}
		utils.ResponseError(w, appErr)
		return
	}

	log.Error("Failed to "+operation,
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("request_id", utils.GetRequestID(r.Context())))
	utils.ResponseInternalError(w)
}

// actorFrom reads the caller set by the auth middleware.
func actorFrom(r *http.Request) (usecase.Actor, bool) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return usecase.Actor{}, false
	}
	role, _ := utils.GetRoleFromContext(r.Context())
	return usecase.Actor{ID: id, Role: entity.UserRole(role)}, true
}

func clientInfo(r *http.Request) usecase.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return usecase.ClientInfo{UserAgent: r.UserAgent(), IP: ip}
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}
