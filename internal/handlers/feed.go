package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/feed"
)

const writeTimeout = 10 * time.Second

type FeedHandler struct {
	hub     *feed.Hub
	origins []string
	log     *zap.Logger
}

func NewFeedHandler(hub *feed.Hub, origins []string, log *zap.Logger) *FeedHandler {
	return &FeedHandler{hub: hub, origins: origins, log: log}
}

// Stream upgrades to a websocket and forwards matching change events until
// either side goes away.
func (h *FeedHandler) Stream(c *gin.Context) {
	f, err := feed.ParseFilter(c.Query("table"), c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Change feed is not running"})
		return
	}

	// Subscribed before the upgrade completes, so nothing published after the
	// client's dial returns is missed.
	sub := h.hub.Subscribe(f)
	defer sub.Close()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		// Accept already wrote the error response
		h.log.Debug("feed upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	log := h.log.With(zap.Stringer("filter", f))
	log.Debug("feed client connected")

	// Clients never send anything; CloseRead runs the read side and cancels
	// ctx once the peer closes.
	ctx := conn.CloseRead(c.Request.Context())

	if err := writePump(ctx, conn, sub); err != nil {
		log.Debug("feed client gone", zap.Error(err))
		return
	}
	conn.Close(websocket.StatusTryAgainLater, "subscription ended, reconnect and re-fetch")
}

func writePump(ctx context.Context, conn *websocket.Conn, sub *feed.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-sub.Events():
			if !ok {
				return nil
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, e)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
