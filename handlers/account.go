package handlers

import (
	"errors"
	"net/http"
	"strings"

	"finora/api/auth"
	"finora/api/logger"
	"finora/api/models"
	"finora/api/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type FederatedRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token" binding:"required"`
}

// SessionResponse is returned by every sign-in route.
type SessionResponse struct {
	Session              *models.Session `json:"session,omitempty"`
	User                 models.User     `json:"user"`
	HasProfile           bool            `json:"has_profile"`
	ConfirmationRequired bool            `json:"confirmation_required,omitempty"`
}

// HandleSignUp creates the account and its empty profile.
func (h *Handler) HandleSignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	sess, err := h.identity.SignUp(ctx, strings.TrimSpace(req.Email), req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		authError(c, "sign up", err)
		return
	}
	userID := sess.User.UserID

	if err := h.profiles.SaveProfile(ctx, userID, models.Empty()); err != nil {
		logger.Get().Error("error creating empty profile",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating profile"})
		return
	}
	h.recordUser(c, sess.User)

	h.sessions.Update(userID, func(s session.Snapshot) session.Snapshot {
		s.User = sess.User
		return s.WithProfile(models.Empty())
	})

	logger.Get().Info("user signed up", zap.String("user_id", userID))
	resp := SessionResponse{User: sess.User, HasProfile: true}
	if sess.AccessToken == "" {
		resp.ConfirmationRequired = true
	} else {
		resp.Session = sess
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sess, err := h.identity.SignIn(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		authError(c, "login", err)
		return
	}
	h.signedIn(c, sess, false)
}

// HandleFederatedLogin signs in with a provider id token (Google by
// default). First-time users get an empty profile.
func (h *Handler) HandleFederatedLogin(c *gin.Context) {
	var req FederatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Provider == "" {
		req.Provider = "google"
	}

	sess, err := h.identity.SignInWithIDToken(c.Request.Context(), req.Provider, req.IDToken)
	if err != nil {
		authError(c, "federated login", err)
		return
	}
	h.signedIn(c, sess, true)
}

func (h *Handler) signedIn(c *gin.Context, sess *models.Session, createProfile bool) {
	ctx := c.Request.Context()
	userID := sess.User.UserID
	h.recordUser(c, sess.User)

	profile, err := h.profiles.LoadProfile(ctx, userID)
	if err != nil {
		logger.Get().Error("error loading profile",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading profile"})
		return
	}
	if profile == nil && createProfile {
		empty := models.Empty()
		if err := h.profiles.SaveProfile(ctx, userID, empty); err != nil {
			logger.Get().Error("error creating empty profile",
				zap.String("user_id", userID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating profile"})
			return
		}
		profile = &empty
	}

	snap := h.sessions.Update(userID, func(s session.Snapshot) session.Snapshot {
		s.User = sess.User
		if profile == nil {
			return s.WithoutProfile()
		}
		return s.WithProfile(*profile)
	})

	logger.Get().Info("user signed in", zap.String("user_id", userID))
	c.JSON(http.StatusOK, SessionResponse{Session: sess, User: sess.User, HasProfile: snap.HasProfile})
}

// recordUser upserts the account row. A failure is logged and does not
// fail the sign-in.
func (h *Handler) recordUser(c *gin.Context, user models.User) {
	if err := h.users.UpsertUser(c.Request.Context(), user); err != nil {
		logger.Get().Error("error saving user details",
			zap.String("user_id", user.UserID),
			zap.Error(err))
	}
}

func (h *Handler) HandleLogout(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.identity.SignOut(c.Request.Context(), token); err != nil {
		logger.Get().Warn("error signing out with identity provider",
			zap.String("user_id", claims.UserID()),
			zap.Error(err))
	}
	h.forget(claims.UserID())

	logger.Get().Info("user signed out", zap.String("user_id", claims.UserID()))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func authError(c *gin.Context, op string, err error) {
	var perr *auth.ProviderError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &perr):
		logger.Get().Error("identity provider error", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": perr.Message})
	default:
		logger.Get().Error("authentication failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
	}
}
