package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/coordinator"
	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/session"
)

// Handler is the session side of the transport.
type Handler interface {
	Connect(connectionID string, emitter session.Emitter) (string, error)
	Dispatch(connectionID, event string, data json.RawMessage)
	Disconnect(connectionID string)
}

// Server upgrades HTTP requests to event connections.
type Server struct {
	handler      Handler
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	pongWait     time.Duration
	writeWait    time.Duration
	maxMessage   int64

	mu    sync.Mutex
	conns map[string]*Connection
	wg    sync.WaitGroup
}

const defaultWriteWait = 10 * time.Second

func NewServer(cfg config.TransportConfig, handler Handler, logger *slog.Logger) *Server {
	writeWait := time.Duration(cfg.WriteWaitMS) * time.Millisecond
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	return &Server{
		handler: handler,
		logger:  logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: time.Duration(cfg.PingIntervalMS) * time.Millisecond,
		pongWait:     time.Duration(cfg.PongWaitMS) * time.Millisecond,
		writeWait:    writeWait,
		maxMessage:   cfg.MaxMessageBytes,
		conns:        make(map[string]*Connection),
	}
}

// Connections reports the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slogError(err))
		return
	}
	conn := &Connection{
		id:        uuid.NewString(),
		ws:        ws,
		writeWait: s.writeWait,
		logger:    s.logger,
	}
	s.mu.Lock()
	s.conns[conn.id] = conn
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn.id)
		s.mu.Unlock()
		conn.Close()
		s.handler.Disconnect(conn.id)
	}()

	if s.maxMessage > 0 {
		ws.SetReadLimit(s.maxMessage)
	}
	if s.pongWait > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(s.pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(s.pongWait))
		})
	}

	if _, err := s.handler.Connect(conn.id, conn); err != nil {
		s.logger.Warn("connect rejected", slog.String("connection_id", conn.id), slogError(err))
		return
	}

	stopPing := make(chan struct{})
	defer close(stopPing)
	if s.pingInterval > 0 {
		go conn.keepAlive(s.pingInterval, stopPing)
	}

	for {
		msgType, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("connection closed", slog.String("connection_id", conn.id), slogError(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var env protocol.Envelope
		if err := json.Unmarshal(payload, &env); err != nil || env.Event == "" {
			s.logger.Debug("malformed envelope", slog.String("connection_id", conn.id))
			_ = conn.Emit(protocol.EventError, protocol.ErrorPayload{
				Message: "malformed message",
				Code:    coordinator.CodeEventUnsupported,
			})
			continue
		}
		s.handler.Dispatch(conn.id, env.Event, env.Data)
	}
}

// Close drops every connection and waits for their handlers to finish.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	s.wg.Wait()
}

// Connection is one client. Emit is safe for concurrent use and a no-op after Close.
type Connection struct {
	id        string
	ws        *websocket.Conn
	writeWait time.Duration
	logger    *slog.Logger

	writeMu sync.Mutex
	closed  bool
}

func (c *Connection) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(protocol.Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return nil
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

func (c *Connection) Close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = c.ws.Close()
}

func (c *Connection) keepAlive(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			if c.closed {
				c.writeMu.Unlock()
				return
			}
			err := c.ws.WriteControl(websocket.PingMessage, []byte("keepalive"), time.Now().Add(c.writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug("ping failed", slog.String("connection_id", c.id), slogError(err))
				return
			}
		case <-stop:
			return
		}
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
