package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (s *Server) handleQuests(c *gin.Context) {
	quests, err := s.quests.List(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if quests == nil {
		quests = []models.Quest{}
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

// handleWatch upgrades to a WebSocket and writes one JSON view per change.
// Any message from the client, or the client going away, ends the watch.
func (s *Server) handleWatch(c *gin.Context) {
	id := c.MustGet(identityKey).(session.Identity)
	req := models.WatchRequest{
		Topic:          c.Param("topic"),
		Search:         c.Query("q"),
		Category:       c.Query("category"),
		ConversationID: c.Query("conversation"),
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		_, _, _ = conn.ReadMessage()
	}()

	err = s.watch.Watch(ctx, id, req, func(v models.View) error {
		return conn.WriteJSON(v)
	})
	if err != nil {
		s.logger.Info(ctx, "watch ended", "topic", req.Topic, "error", err)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
