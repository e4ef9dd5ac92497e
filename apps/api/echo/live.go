package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/services/metrics"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are already restricted by the CORS middleware and the token
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveMessage is pushed to console sessions over the live socket.
type LiveMessage struct {
	Type  string                 `json:"type"`
	Data  *notification.Snapshot `json:"data,omitempty"`
	Views []string               `json:"views,omitempty"`
}

type liveApi struct {
	feed        *notification.Feed
	invalidator core.Invalidator
	metrics     *metrics.Metrics
	logger      core.Logger
}

func registerLiveAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := liveApi{feed: deps.Feed, invalidator: deps.Invalidator, metrics: deps.Metrics, logger: deps.Logger}
	g.GET("/live", api.serve, jwt, memberMiddleware())
}

func (api *liveApi) serve(ctx echo.Context) error {
	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return nil // the upgrader has already replied
	}
	defer conn.Close()

	if api.metrics != nil {
		api.metrics.LiveSessionOpened()
		defer api.metrics.LiveSessionClosed()
	}

	lctx, cancel := context.WithCancel(ctx.Request().Context())
	defer cancel()

	snaps, err := api.feed.Subscribe(lctx)
	if err != nil {
		api.logger.Error("subscribing to notification feed", err, getContextSession(ctx))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, core.MessageOf(err)),
			time.Now().Add(liveWriteWait))
		return nil
	}
	var invalidations <-chan core.Invalidation
	if api.invalidator != nil {
		if invalidations, err = api.invalidator.Subscribe(lctx); err != nil {
			api.logger.Warn("subscribing to view invalidations", err, getContextSession(ctx))
		}
	}

	go readPump(conn, cancel)
	api.writePump(lctx, conn, snaps, invalidations)
	return nil
}

// readPump discards client frames and cancels the session when the socket closes.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine writing to conn.
func (api *liveApi) writePump(ctx context.Context, conn *websocket.Conn, snaps <-chan notification.Snapshot, invalidations <-chan core.Invalidation) {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	write := func(msg LiveMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		return conn.WriteJSON(msg) == nil
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(liveWriteWait))
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if !write(LiveMessage{Type: "notifications", Data: &snap}) {
				return
			}
		case inv, ok := <-invalidations:
			if !ok {
				invalidations = nil
				continue
			}
			if !write(LiveMessage{Type: "invalidate", Views: inv.Views}) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}
