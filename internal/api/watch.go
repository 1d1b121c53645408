package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/justyntemme/razord/internal/app"
	"github.com/justyntemme/razord/internal/fs"
	"github.com/justyntemme/razord/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	// The server binds to loopback by default; the UI may be served from
	// any local origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChangeEvent is sent on the watch stream each time the directory changes.
type ChangeEvent struct {
	Path string `json:"path"`
}

// watch streams change events for ?path= over a websocket until the client
// disconnects.
func (s *Server) watch(c *gin.Context) {
	dir := c.Query("path")
	if dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	sub, err := s.app.Watch(dir)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, fs.ErrNotDirectory) {
			status = http.StatusBadRequest
		} else if errors.Is(err, app.ErrNoWatcher) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.IncWatchStreams()
	defer metrics.DecWatchStreams()
	s.log.Debug("watch stream opened", zap.String("path", sub.Dir()))

	// The client never sends data; reading detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			s.log.Debug("watch stream closed", zap.String("path", sub.Dir()))
			return
		case dir, ok := <-sub.Events():
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "watcher stopped"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ChangeEvent{Path: dir}); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
