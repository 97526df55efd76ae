package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/store"
	"storefront/utils"
)

// Key type for context
type contextKey string

const userContextKey = contextKey("user")

// CookieName is the session cookie set at login.
const CookieName = "token"

// ClaimsFromContext returns the claims attached by Auth.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(userContextKey).(*utils.Claims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// tokenFromRequest reads the session cookie, then the Authorization header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Auth verifies the session token and attaches its claims to the context.
func Auth(jwt *utils.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				utils.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
				return
			}
			claims, err := jwt.ParseJWT(tokenStr)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// UserFinder loads the account behind a session.
type UserFinder interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// CurrentUser runs after Auth and reloads the account, so a deactivated or
// deleted user is rejected and a role change takes effect before the token
// expires. The claims passed on carry the stored role and name.
func CurrentUser(users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
				return
			}
			id, err := claims.ObjectID()
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired token")
				return
			}
			user, err := users.FindUser(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				utils.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "account no longer exists")
				return
			}
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to load session user", "user_id", claims.UserID, "error", err)
				utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
				return
			}
			if user.Status == models.UserInactive {
				utils.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "account is inactive")
				return
			}
			fresh := *claims
			fresh.Role = user.Role
			fresh.Name = user.Name
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), &fresh)))
		})
	}
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			utils.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		if claims.Role != models.RoleAdmin {
			utils.WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
