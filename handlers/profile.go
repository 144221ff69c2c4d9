package handlers

import (
	"errors"
	"net/http"
	"time"

	"finora/api/form"
	"finora/api/logger"
	"finora/api/models"
	"finora/api/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileResponse struct {
	Profile models.Profile `json:"profile"`
	Version uint64         `json:"version"`
}

func (h *Handler) HandleGetProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	snap, err := h.loadSnapshot(c.Request.Context(), claims)
	if err != nil {
		logger.Get().Error("error loading profile",
			zap.String("user_id", claims.UserID()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading profile"})
		return
	}
	if !snap.HasProfile {
		c.JSON(http.StatusOK, gin.H{"no_profile": true})
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Profile: *snap.Profile, Version: snap.Version})
}

// HandleUpdateProfile replaces the whole profile with the submitted form.
func (h *Handler) HandleUpdateProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.editor(claims.UserID()).SubmitInput(c.Request.Context(), req)
	h.finishSave(c, claims, profile, err)
}

// finishSave answers a submit: the error mapping on failure, otherwise the
// new session snapshot and the profile event.
func (h *Handler) finishSave(c *gin.Context, claims *models.SupabaseClaims, profile models.Profile, err error) {
	userID := claims.UserID()
	var verr *models.ValidationError
	var serr *form.SaveError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, validationResponse(verr))
		return
	case errors.Is(err, form.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.As(err, &serr):
		logger.Get().Error("error saving profile",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": serr.Error()})
		return
	default:
		logger.Get().Error("error saving profile",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving profile"})
		return
	}

	snap := h.sessions.Update(userID, func(s session.Snapshot) session.Snapshot {
		if s.User.Email == "" {
			s.User.Email = claims.Email
		}
		if s.User.Name == "" {
			s.User.Name = claims.DisplayName()
		}
		return s.WithProfile(profile)
	})

	event := models.ProfileEvent{
		EventID: uuid.NewString(),
		UserID:  userID,
		Version: snap.Version,
		SavedAt: time.Now().Unix(),
	}
	if err := h.events.PublishProfileEvent(c.Request.Context(), event); err != nil {
		logger.Get().Error("error publishing profile event",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	logger.Get().Info("profile saved successfully",
		zap.String("user_id", userID),
		zap.Uint64("version", snap.Version))
	c.JSON(http.StatusOK, ProfileResponse{Profile: profile, Version: snap.Version})
}
