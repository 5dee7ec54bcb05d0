package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/SamMuaks2/projectsandtasks-backend/logging"
	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const actorKey contextKey = "actor"

// JWTAuthMiddleware validates the bearer token and attaches the acting
// user (id and role) to the request context.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_SUBJECT, Description: Invalid user id in token for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		actor := models.User{ID: userID, Role: models.Role(claims.Role)}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the authenticated actor stored by the
// middleware.
func ActorFromContext(ctx context.Context) (models.User, bool) {
	actor, ok := ctx.Value(actorKey).(models.User)
	return actor, ok
}
