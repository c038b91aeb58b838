package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
	"github.com/codequestlab/codequest-backend/internal/middleware"
	ws "github.com/codequestlab/codequest-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the live activity feed: every task completion,
// achievement unlock, and certificate issued anywhere on the platform.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ActivityFeed godoc
// WS /ws/v1/feed
//
// Subscribes the connection to the Redis activity channel and forwards
// every event until the client disconnects.
func (h *WSHandler) ActivityFeed(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	feedLog := h.log.With().Int("user_id", claims.UserID).Logger()
	feedLog.Info().Msg("Feed subscriber connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.ActivityFeedChannel())
	defer sub.Close()

	// Reads happen in their own goroutine, but it never touches the
	// connection's write side: the connection supports a single concurrent
	// writer, so every write goes through the select loop below.
	requests := make(chan ws.RequestEnvelope)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			var req ws.RequestEnvelope
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					feedLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					feedLog.Debug().Msg("Feed subscriber disconnected")
				}
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	broadcasts := sub.Channel()
	for {
		select {
		case <-readDone:
			return

		case msg, ok := <-broadcasts:
			if !ok {
				return
			}
			var event ws.ActivityEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				feedLog.Warn().Err(err).Msg("Malformed activity event")
				continue
			}
			if err := ws.WriteTyped(conn, event); err != nil {
				return
			}

		case req := <-requests:
			switch req.Action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			default:
				ws.WriteTyped(conn, ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(req.Action)})
			}
		}
	}
}
