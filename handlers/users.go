package handlers

import (
	"net/http"

	"finora/api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleMe returns the signed-in account and whether it has a profile yet.
func (h *Handler) HandleMe(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := claims.UserID()

	snap, err := h.loadSnapshot(ctx, claims)
	if err != nil {
		logger.Get().Error("error loading profile",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading profile"})
		return
	}

	user := snap.User
	record, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.Get().Error("error fetching user",
			zap.String("user_id", userID),
			zap.Error(err))
	} else if record != nil {
		user = *record
	}
	user.UserID = userID

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"has_profile": snap.HasProfile,
		"version":     snap.Version,
	})
}
