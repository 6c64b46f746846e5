package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/core"
	"github.com/example/pushsync/internal/models"
)

// TokenHandler serves the manageFcmToken callable.
type TokenHandler struct {
	tokenService core.TokenService
	logger       *zap.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(ts core.TokenService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{tokenService: ts, logger: logger}
}

// ManageFcmToken registers or unregisters the device token in the payload.
func (h *TokenHandler) ManageFcmToken(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		respondCode(c, CodeUnauthenticated, "Must be authenticated")
		return
	}

	var req models.ManageTokenRequest
	if err := decodeCallable(c, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.tokenService.Manage(c.Request.Context(), userID, req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondResult(c, models.ManageTokenResponse{Success: true})
}
