package handlers

import (
	"context"
	"errors"
	"net/http"

	"finora/api/logger"
	"finora/api/middleware"
	"finora/api/models"
	"finora/api/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxLoadAttempts = 3

func currentUser(c *gin.Context) (*models.SupabaseClaims, bool) {
	user, exists := c.Get(middleware.UserKey)
	if !exists {
		logger.Get().Error("user not authenticated")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	claims, ok := user.(*models.SupabaseClaims)
	if !ok {
		logger.Get().Error("invalid user claims")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user claims"})
		return nil, false
	}
	return claims, true
}

// loadSnapshot returns the user's session, reading the profile from the
// store when this process has no current snapshot. A read that races with
// a profile event is retried so a stale profile is never cached.
func (h *Handler) loadSnapshot(ctx context.Context, claims *models.SupabaseClaims) (session.Snapshot, error) {
	userID := claims.UserID()
	for attempt := 0; ; attempt++ {
		if snap, ok := h.sessions.Get(userID); ok {
			return snap, nil
		}

		gen := h.sessions.Generation(userID)
		profile, err := h.profiles.LoadProfile(ctx, userID)
		if err != nil {
			return session.Snapshot{}, err
		}

		fill := func(s session.Snapshot) session.Snapshot {
			if s.User.Email == "" {
				s.User.Email = claims.Email
			}
			if s.User.Name == "" {
				s.User.Name = claims.DisplayName()
			}
			if profile == nil {
				return s.WithoutProfile()
			}
			return s.WithProfile(*profile)
		}
		if snap, ok := h.sessions.Fill(userID, gen, fill); ok {
			return snap, nil
		}
		if attempt == maxLoadAttempts-1 {
			// serve the last read without caching it
			return fill(session.Snapshot{User: models.User{UserID: userID}}), nil
		}
	}
}

// profileOrAbort loads the user's profile, answering the request itself
// when there is none or the store fails.
func (h *Handler) profileOrAbort(c *gin.Context) (*models.SupabaseClaims, *models.Profile, bool) {
	claims, ok := currentUser(c)
	if !ok {
		return nil, nil, false
	}

	snap, err := h.loadSnapshot(c.Request.Context(), claims)
	if err != nil {
		logger.Get().Error("error loading profile",
			zap.String("user_id", claims.UserID()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading profile"})
		return nil, nil, false
	}
	if !snap.HasProfile {
		c.JSON(http.StatusOK, gin.H{"no_profile": true})
		return nil, nil, false
	}
	return claims, snap.Profile, true
}

func validationResponse(err *models.ValidationError) gin.H {
	fields := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		fields[f.Field] = f.Err.Error()
	}
	return gin.H{"error": err.Error(), "fields": fields}
}

func bindError(c *gin.Context, err error) {
	logger.Get().Error("error binding JSON", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
