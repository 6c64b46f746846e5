package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/core"
	"github.com/example/pushsync/internal/middleware"
)

// maxCallableBody bounds the size of a callable request body.
const maxCallableBody = 1 << 20

var errBadRequest = errors.New("bad request")

// decodeCallable reads the {"data": ...} envelope into dst.
// An empty body or a null data field leaves dst untouched.
func decodeCallable[T any](c *gin.Context, dst *T) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallableBody))
	if err != nil {
		return errBadRequest
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var envelope CallableRequest[*T]
	envelope.Data = dst
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errBadRequest
	}
	return nil
}

// callerID returns the authenticated UID set by the auth middleware.
func callerID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserID)
	return userID, userID != ""
}

func respondResult(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, CallableResponse{Result: result})
}

func respondCode(c *gin.Context, code, message string) {
	c.JSON(httpStatusForCode(code), ErrorResponse{Error: CallableError{Status: code, Message: message}})
}

// respondError maps err to a callable error. Unexpected errors are logged
// and reported as INTERNAL without details.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code, message := mapErrorToCallable(err)
	if code == CodeInternal {
		logger.Error("callable failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.ContextRequestID)),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	respondCode(c, code, message)
}

// mapErrorToCallable translates service errors to canonical callable codes.
func mapErrorToCallable(err error) (code, message string) {
	switch {
	case errors.Is(err, errBadRequest):
		return CodeInvalidArgument, "Bad Request"
	case errors.Is(err, core.ErrInvalidToken):
		return CodeInvalidArgument, "Token is required"
	case errors.Is(err, core.ErrInvalidAction):
		return CodeInvalidArgument, `Action must be "register" or "unregister"`
	case errors.Is(err, core.ErrInvalidTheme):
		return CodeInvalidArgument, `Theme must be "light", "dark" or "system"`
	case errors.Is(err, core.ErrInvalidOptions):
		return CodeInvalidArgument, "Invalid notification options"
	case errors.Is(err, core.ErrInvalidUserID):
		return CodeUnauthenticated, "Must be authenticated"
	case errors.Is(err, core.ErrUserNotFound):
		return CodeNotFound, "User not found"
	case errors.Is(err, core.ErrNoTokens):
		return CodeFailedPrecondition, "No FCM tokens registered"
	case errors.Is(err, core.ErrCooldown):
		return CodeResourceExhausted, "Test notification sent too recently, try again later"
	default:
		return CodeInternal, "Internal error"
	}
}

// httpStatusForCode returns the HTTP status paired with a callable code.
func httpStatusForCode(code string) int {
	switch code {
	case CodeInvalidArgument, CodeFailedPrecondition:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
