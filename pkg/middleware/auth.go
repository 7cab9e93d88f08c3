package middleware

import (
	"net/http"
	"slices"
	"strings"

	"feedback-portal/internal/data/entity"
	"feedback-portal/internal/data/repository"
	"feedback-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auth validates the Bearer access token and stores the user id and role in the context.
func Auth(secret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := utils.ParseAccessToken(strings.TrimSpace(token), secret)
			if err != nil {
				logger.Debug("Rejected access token",
					zap.String("request_id", utils.GetRequestID(r.Context())),
					zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActive reloads the user so that deactivation and deletion apply
// before the access token expires.
func RequireActive(userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := currentUser(w, r, userRepo, logger)
			if !ok {
				return
			}

			if user == nil || !user.IsActive {
				logger.Warn("Access with inactive or deleted account",
					zap.Stringer("user_id", userIDOf(r)),
					zap.String("path", r.URL.Path))
				utils.ResponseError(w, utils.ErrAccountInactive())
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole reloads the user so that role changes and deactivation apply
// before the access token expires.
func RequireRole(userRepo repository.UserRepository, logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := currentUser(w, r, userRepo, logger)
			if !ok {
				return
			}

			if user == nil || !user.IsActive || !slices.Contains(roles, user.Role) {
				logger.Warn("Role check: access denied",
					zap.Stringer("user_id", userIDOf(r)),
					zap.Any("required", roles),
					zap.String("path", r.URL.Path))
				utils.ResponseError(w, utils.ErrForbidden("Insufficient permissions"))
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser loads the user named by the Auth context. It writes the error
// response itself and reports false when the request must stop.
func currentUser(w http.ResponseWriter, r *http.Request, userRepo repository.UserRepository, logger *zap.Logger) (*entity.User, bool) {
	// 1. User id set by Auth
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return nil, false
	}

	// 2. Current state from the repo
	user, err := userRepo.FindByID(r.Context(), userID)
	if err != nil {
		logger.Error("Failed to reload authenticated user",
			zap.Error(err), zap.String("user_id", userID.String()))
		utils.ResponseInternalError(w)
		return nil, false
	}
	return user, true
}

func userIDOf(r *http.Request) uuid.UUID {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return id
}
