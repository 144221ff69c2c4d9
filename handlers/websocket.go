package handlers

import (
	"context"
	"time"

	"finora/api/agents"
	"finora/api/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	readWait  = 60 * time.Second
	// pingPeriod must stay below readWait.
	pingPeriod = readWait * 9 / 10
)

// HandleAgentsSocket streams agent network frames until the client
// disconnects. Each socket runs its own network. The client only listens,
// so pings keep the read deadline moving.
func (h *Handler) HandleAgentsSocket(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	userID := claims.UserID()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Get().Error("failed to upgrade connection",
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	defer conn.Close()
	logger.Get().Info("WebSocket connection established",
		zap.String("user_id", userID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go monitorConnection(userID, conn, h.readWait, cancel)

	cfg := h.agents
	if cfg.Rand != nil {
		// a shared source would be stepped from several sockets at once
		cfg.Rand = nil
	}
	frames := agents.NewNetwork(cfg).Run(ctx)
	ping := time.NewTicker(h.pingPeriod)
	defer ping.Stop()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				logger.Get().Info("WebSocket connection closed", zap.String("user_id", userID))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				logger.Get().Debug("error writing frame",
					zap.String("user_id", userID),
					zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Get().Debug("error writing ping",
					zap.String("user_id", userID),
					zap.Error(err))
				return
			}
		}
	}
}

// monitorConnection drains the client side of the socket and cancels the
// stream once the client closes it or stops answering pings.
func monitorConnection(userID string, conn *websocket.Conn, wait time.Duration, cancel context.CancelFunc) {
	defer cancel()
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Get().Debug("connection error",
					zap.String("user_id", userID),
					zap.Error(err))
			}
			return
		}
	}
}
