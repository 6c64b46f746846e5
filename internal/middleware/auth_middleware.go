package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys under which the authenticated caller is stored in the gin context.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
)

// callableErrorResponse mirrors the error envelope of internal/api.
// It is defined locally to avoid an import cycle.
type callableErrorResponse struct {
	Error callableErrorBody `json:"error"`
}

type callableErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func abortCallable(c *gin.Context, httpStatus int, status, message string) {
	c.AbortWithStatusJSON(httpStatus, callableErrorResponse{Error: callableErrorBody{Status: status, Message: message}})
}

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
// It panics if verifier is nil, as routes cannot be secured without it.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("token verifier is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken verifies the bearer ID token and stores the caller's UID and
// email in the context. Failures are reported as UNAUTHENTICATED.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortCallable(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Must be authenticated")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortCallable(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authorization header format must be 'Bearer {token}'")
			return
		}

		token, err := m.verifier.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			// Details stay server-side.
			m.logger.Warn("ID token verification failed", zap.Error(err))
			abortCallable(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or expired authentication token")
			return
		}

		c.Set(ContextUserID, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set(ContextUserEmail, email)
		}

		c.Next()
	}
}

// RequireAllowedUser rejects callers whose email is not in allowed with
// PERMISSION_DENIED. An empty list admits every authenticated caller.
// allowed must already be lower-cased.
func RequireAllowedUser(allowed []string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, email := range allowed {
		set[email] = struct{}{}
	}
	return func(c *gin.Context) {
		if len(set) == 0 {
			c.Next()
			return
		}
		email := strings.ToLower(strings.TrimSpace(c.GetString(ContextUserEmail)))
		if _, ok := set[email]; !ok || email == "" {
			abortCallable(c, http.StatusForbidden, "PERMISSION_DENIED", "You do not have access to this application")
			return
		}
		c.Next()
	}
}
