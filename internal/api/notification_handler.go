package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/core"
	"github.com/example/pushsync/internal/models"
)

// NotificationHandler serves the sendTestNotification callable.
type NotificationHandler struct {
	notificationService core.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ns core.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: ns, logger: logger}
}

// SendTestNotification sends the test notification to every device of the caller.
func (h *NotificationHandler) SendTestNotification(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		respondCode(c, CodeUnauthenticated, "Must be authenticated")
		return
	}

	var req models.SendTestNotificationRequest
	if err := decodeCallable(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp, err := h.notificationService.SendTest(c.Request.Context(), userID, req.CurrentToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondResult(c, resp)
}
