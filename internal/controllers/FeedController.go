package controllers

import (
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"tracer/internal/models"
	"tracer/internal/providers"
	"tracer/internal/services"
)

const (
	feedBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// FeedController streams store change events over WebSocket so a local UI
// can re-render when the cache changes.
type FeedController struct {
	logger   providers.Logger
	store    services.DataStoreInterface
	metrics  providers.MetricsProviderInterface
	upgrader websocket.Upgrader
	clients  atomic.Int64
}

func NewFeedController(logger providers.Logger, store services.DataStoreInterface, metrics providers.MetricsProviderInterface) *FeedController {
	return &FeedController{
		logger:  logger,
		store:   store,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     isLocalOrigin,
		},
	}
}

// isLocalOrigin accepts requests without an Origin header and browser
// origins on a loopback host.
func isLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (fc *FeedController) Feed(w http.ResponseWriter, r *http.Request) {
	conn, err := fc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fc.logger.Warnf(providers.TypeApp, "Feed upgrade failed: %s", err)
		return
	}

	events, cancel := fc.store.Subscribe(feedBuffer)
	fc.metrics.SetFeedSubscribers(int(fc.clients.Add(1)))
	defer func() {
		cancel()
		fc.metrics.SetFeedSubscribers(int(fc.clients.Add(-1)))
		_ = conn.Close()
	}()

	closed := make(chan struct{})
	go fc.readPump(conn, closed)
	fc.writePump(conn, events, closed)
}

// readPump discards client messages and keeps the read deadline fresh.
func (fc *FeedController) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (fc *FeedController) writePump(conn *websocket.Conn, events <-chan models.ChangeEvent, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msg, err := json.Marshal(ev)
			if err != nil {
				fc.logger.Errorf(providers.TypeApp, "Feed encode failed: %s", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				fc.logger.Debugf(providers.TypeApp, "Feed write failed: %s", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
