package handlers

import (
	"io"
	"net/http"
	"slices"
	"strconv"

	"finora/api/analysis"
	"finora/api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const streamDone = "[DONE]"

func streamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
}

func writeEvent(c *gin.Context, msg string) error {
	if _, err := c.Writer.Write([]byte("data: " + msg + "\n\n")); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// HandleProfileEvents streams a ProfileEvent every time the user's profile
// is saved, from any tab or instance.
func (h *Handler) HandleProfileEvents(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	userID := claims.UserID()

	cs := h.hub.Register(userID)
	logger.Get().Info("SSE connection established", zap.String("user_id", userID))
	defer func() {
		h.hub.Unregister(userID, cs)
		logger.Get().Info("SSE connection closed", zap.String("user_id", userID))
	}()

	streamHeaders(c)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg := <-cs.Messages:
			return writeEvent(c, msg) == nil
		case <-c.Request.Context().Done():
			return false
		case <-cs.Done:
			return false
		}
	})
}

// HandleAnalysisStream plays the terminal greeting and then the scripted
// analysis of the user's profile. With instant=true every stage is sent
// without waiting.
func (h *Handler) HandleAnalysisStream(c *gin.Context) {
	claims, profile, ok := h.profileOrAbort(c)
	if !ok {
		return
	}

	greeting := analysis.Stage{Lines: append(slices.Clone(analysis.Greeting), "")}
	stages := append([]analysis.Stage{greeting}, analysis.Script(*profile, c.Query("query"))...)
	if instant, _ := strconv.ParseBool(c.Query("instant")); instant {
		for i := range stages {
			stages[i].At = 0
		}
	}

	streamHeaders(c)
	c.Status(http.StatusOK)

	err := analysis.Play(c.Request.Context(), stages, func(line string) error {
		return writeEvent(c, line)
	})
	if err != nil {
		if !isCanceled(err) {
			logger.Get().Error("error streaming analysis",
				zap.String("user_id", claims.UserID()),
				zap.Error(err))
		}
		return
	}
	if err := writeEvent(c, streamDone); err != nil {
		logger.Get().Debug("client left before end of analysis",
			zap.String("user_id", claims.UserID()))
	}
}
