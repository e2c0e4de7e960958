package outpost

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/core/logger"
	"github.com/dmitrymomot/headquarters/pkg/broadcast"
	"github.com/dmitrymomot/headquarters/pkg/ratelimiter"
)

const wsTransport = "websocket"

// WebSocketOption configures WebSocket and Monitor handlers.
type WebSocketOption func(*wsConfig)

type wsConfig struct {
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	writeTimeout time.Duration
	onConnect    func(*http.Request, command.ContextObject) error
	onDisconnect func(command.ContextObject)
	limiter      Limiter
}

func newWSConfig(opts []WebSocketOption) *wsConfig {
	cfg := &wsConfig{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithWSReadBuffer sets the upgrader read buffer size.
func WithWSReadBuffer(size int) WebSocketOption {
	return func(c *wsConfig) { c.upgrader.ReadBufferSize = size }
}

// WithWSWriteBuffer sets the upgrader write buffer size.
func WithWSWriteBuffer(size int) WebSocketOption {
	return func(c *wsConfig) { c.upgrader.WriteBufferSize = size }
}

// WithWSHandshakeTimeout bounds the upgrade handshake.
func WithWSHandshakeTimeout(timeout time.Duration) WebSocketOption {
	return func(c *wsConfig) { c.upgrader.HandshakeTimeout = timeout }
}

// WithWSOriginCheck sets the origin policy. The default rejects cross-origin requests.
func WithWSOriginCheck(fn func(r *http.Request) bool) WebSocketOption {
	return func(c *wsConfig) { c.upgrader.CheckOrigin = fn }
}

// WithWSAllowAnyOrigin accepts connections from any origin.
func WithWSAllowAnyOrigin() WebSocketOption {
	return func(c *wsConfig) {
		c.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// WithWSWriteTimeout bounds every frame write. Default is 10 seconds.
func WithWSWriteTimeout(d time.Duration) WebSocketOption {
	return func(c *wsConfig) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithWSLogger sets the logger.
func WithWSLogger(l *slog.Logger) WebSocketOption {
	return func(c *wsConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWSOnConnect runs fn with the connection's ContextObject before any
// input is read. Returning an error closes the connection.
//
// Example:
//
//	outpost.WithWSOnConnect(func(r *http.Request, ctx command.ContextObject) error {
//	    ctx.Store("admin", r.Header.Get("X-Admin") == "1")
//	    return nil
//	})
func WithWSOnConnect(fn func(*http.Request, command.ContextObject) error) WebSocketOption {
	return func(c *wsConfig) { c.onConnect = fn }
}

// WithWSOnDisconnect runs fn after the connection closed.
func WithWSOnDisconnect(fn func(command.ContextObject)) WebSocketOption {
	return func(c *wsConfig) { c.onDisconnect = fn }
}

// WithWSRateLimit bounds how fast each connection may submit input.
// Input over the limit is answered with a Failure frame.
func WithWSRateLimit(l Limiter) WebSocketOption {
	return func(c *wsConfig) { c.limiter = l }
}

// WebSocket is an http.Handler feeding every text frame of a connection to
// a Dispatcher and writing each result back as a Response frame.
// All input of one connection shares one ContextObject.
type WebSocket struct {
	dispatcher Dispatcher
	cfg        *wsConfig

	connections atomic.Int64
	received    atomic.Int64
	sent        atomic.Int64
}

// WebSocketStats reports connection counters.
type WebSocketStats struct {
	Connections int64
	Received    int64
	Sent        int64
}

// NewWebSocket creates a WebSocket outpost for d.
func NewWebSocket(d Dispatcher, opts ...WebSocketOption) (*WebSocket, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	return &WebSocket{dispatcher: d, cfg: newWSConfig(opts)}, nil
}

// Stats returns current counters.
func (ws *WebSocket) Stats() WebSocketStats {
	return WebSocketStats{
		Connections: ws.connections.Load(),
		Received:    ws.received.Load(),
		Sent:        ws.sent.Load(),
	}
}

func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.cfg.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied with an HTTP error
		ws.cfg.logger.Debug("websocket upgrade failed",
			logger.Transport(wsTransport),
			logger.Error(err))
		return
	}

	ctx := command.NewContextObject()
	ctx.Store(TransportKey, wsTransport)
	ctx.Store(RemoteAddrKey, r.RemoteAddr)

	c := &wsConn{conn: conn, timeout: ws.cfg.writeTimeout}
	defer c.close()

	if fn := ws.cfg.onConnect; fn != nil {
		if err := fn(r, ctx); err != nil {
			ws.cfg.logger.Info("websocket connection rejected",
				logger.Transport(wsTransport),
				logger.Error(err))
			c.closeWith(websocket.ClosePolicyViolation, err.Error())
			return
		}
	}

	ws.connections.Add(1)
	defer ws.connections.Add(-1)

	connID := uuid.NewString()
	if f, ok := ws.cfg.limiter.(forgetter); ok {
		defer f.Forget(connID)
	}
	if fn := ws.cfg.onDisconnect; fn != nil {
		defer fn(ctx)
	}

	ws.cfg.logger.Debug("websocket connected",
		logger.Transport(wsTransport),
		slog.String("remote", r.RemoteAddr))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.cfg.logger.Warn("websocket read failed",
					logger.Transport(wsTransport),
					logger.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		ws.received.Add(1)

		req := DecodeRequest(data)
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		id := req.ID

		if l := ws.cfg.limiter; l != nil && !l.Allow(connID) {
			ws.reply(c, NewResponse(id, command.Failure, ratelimiter.ErrRateLimitExceeded))
			continue
		}

		err = ws.dispatcher.HandleInput(req.Text, ctx, func(kind command.ResultKind, payload any) {
			ws.reply(c, NewResponse(id, kind, payload))
		})
		if err != nil {
			ws.reply(c, NewResponse(id, command.Failure, err))
		}
	}
}

func (ws *WebSocket) reply(c *wsConn, resp Response) {
	data, err := EncodeResponse(resp)
	if err != nil {
		ws.cfg.logger.Error("response encoding failed",
			logger.Transport(wsTransport),
			logger.RequestID(resp.ID),
			logger.Error(err))
		return
	}
	if err := c.send(data); err != nil {
		ws.cfg.logger.Debug("response dropped",
			logger.Transport(wsTransport),
			logger.RequestID(resp.ID),
			logger.Error(err))
		return
	}
	ws.sent.Add(1)
}

// Monitor is an http.Handler streaming every broadcast result event to
// connected clients. Frames read from clients are ignored.
type Monitor struct {
	events broadcast.Broadcaster[command.ResultEvent]
	cfg    *wsConfig
}

// NewMonitor creates a Monitor over events.
func NewMonitor(events broadcast.Broadcaster[command.ResultEvent], opts ...WebSocketOption) *Monitor {
	return &Monitor{events: events, cfg: newWSConfig(opts)}
}

func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := m.cfg.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.cfg.logger.Debug("monitor upgrade failed", logger.Error(err))
		return
	}
	c := &wsConn{conn: conn, timeout: m.cfg.writeTimeout}
	defer c.close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sub := m.events.Subscribe(ctx)
	defer func() { _ = sub.Close() }()

	// reading is the only way to notice the client went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Receive(ctx):
			if !ok {
				c.closeWith(websocket.CloseGoingAway, "monitor closed")
				return
			}
			data, err := EncodeResponse(NewEventResponse(msg.Data))
			if err != nil {
				m.cfg.logger.Error("event encoding failed", logger.Error(err))
				continue
			}
			if err := c.send(data); err != nil {
				return
			}
		}
	}
}

// wsConn serializes writes; callbacks of one connection may run concurrently.
type wsConn struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
	closed  bool
}

func (c *wsConn) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) closeWith(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (c *wsConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}
