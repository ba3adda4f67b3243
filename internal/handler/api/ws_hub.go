package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/service/metrics"
	xlogger "github.com/xllucky21/xllucky/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsSendBuffer = 64
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type wsClient struct {
	conn *websocket.Conn
	send chan models.ScoreEvent
	job  string
}

// ScoreHub fans score events out to websocket subscribers. A subscriber
// whose buffer is full misses events rather than stalling the consumer.
type ScoreHub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	l        *xlogger.Logger
	closed   bool
}

func NewScoreHub(l *xlogger.Logger) *ScoreHub {
	if l == nil {
		l = xlogger.Nop()
	}
	metrics.Register()
	return &ScoreHub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: l,
	}
}

// Broadcast implements usecase.Broadcaster.
func (h *ScoreHub) Broadcast(e models.ScoreEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.job != "" && c.job != e.Job {
			continue
		}
		select {
		case c.send <- e:
		default:
			h.l.Debug("ws subscriber lagging, event skipped", xlogger.String("subject", e.Subject))
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *ScoreHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and streams events until the peer goes away.
// ?job=bond limits the stream to one pipeline.
func (h *ScoreHub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("ws upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &wsClient{conn: conn, send: make(chan models.ScoreEvent, wsSendBuffer), job: c.QueryParam("job")}
	if !h.add(cl) {
		_ = conn.Close()
		return nil
	}
	h.l.Info("ws subscriber connected", xlogger.String("remote", c.RealIP()), xlogger.String("job", cl.job))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

func (h *ScoreHub) add(cl *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	metrics.WSClients.Inc()
	return true
}

func (h *ScoreHub) remove(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	metrics.WSClients.Dec()
}

// readLoop only tracks liveness; subscribers never send data.
func (h *ScoreHub) readLoop(cl *wsClient) {
	defer func() {
		h.remove(cl)
		_ = cl.conn.Close()
	}()
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ScoreHub) writeLoop(cl *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case e, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *ScoreHub) Close() {
	h.mu.Lock()
	h.closed = true
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
		metrics.WSClients.Dec()
	}
	h.mu.Unlock()
}
