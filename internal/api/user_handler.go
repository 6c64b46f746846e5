package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/core"
	"github.com/example/pushsync/internal/models"
)

// UserHandler serves the profile callables.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

// GetUserDetails handles the getUserDetails callable: fetch the caller's
// profile, creating the record on first use.
func (h *UserHandler) GetUserDetails(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		respondCode(c, CodeUnauthenticated, "Must be authenticated")
		return
	}

	profile, err := h.userService.FetchOrCreateProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondResult(c, profile)
}

// UpdateUserSettings handles the updateUserSettings callable.
func (h *UserHandler) UpdateUserSettings(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		respondCode(c, CodeUnauthenticated, "Must be authenticated")
		return
	}

	var req models.UpdateSettingsRequest
	if err := decodeCallable(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	profile, err := h.userService.UpdateSettings(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondResult(c, profile)
}
