// Package ws exposes the workflow engine over a WebSocket endpoint. Each
// connection gets its own session; events stream to the client in the order
// the run emitted them.
package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nithiin7/lang2query/internal/logging"
	"github.com/nithiin7/lang2query/internal/runtime"
	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Server mounts the WebSocket endpoint plus health and metrics routes.
type Server struct {
	eng    *runtime.Engine
	mgr    *session.Manager
	logger *slog.Logger

	upgrader websocket.Upgrader
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithServerLogger sets the server logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates the WebSocket transport over an engine and a session
// manager.
func NewServer(eng *runtime.Engine, mgr *session.Manager, opts ...ServerOption) *Server {
	s := &Server{
		eng:    eng,
		mgr:    mgr,
		logger: logging.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWS)

	return r
}

// conn wraps a websocket connection with serialized writes: the event pump
// and connection-level error replies share it.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &conn{ws: raw}
	defer raw.Close()

	sess := session.New(s.eng, s.mgr, session.WithSessionLogger(s.logger))
	defer sess.Close()

	logger := s.logger.With("session_id", sess.ID())
	logger.Info("client connected", "remote", r.RemoteAddr)

	if err := c.writeJSON(outboundMessage{Type: msgConnected, SessionID: sess.ID()}); err != nil {
		logger.Warn("connected handshake failed", "err", err)
		return
	}

	// Event pump: session queue to wire, in order.
	// A dead socket must not stall the session: on write failure the pump
	// cancels the run but keeps draining until the queue closes.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		dead := false
		for {
			select {
			case ev, ok := <-sess.Events():
				if !ok {
					return
				}
				if dead {
					continue
				}
				if err := c.writeJSON(outbound(ev)); err != nil {
					logger.Warn("event write failed", "err", err)
					dead = true
					sess.Cancel()
				}
			case <-ticker.C:
				if dead {
					continue
				}
				if err := c.ping(); err != nil {
					dead = true
					sess.Cancel()
				}
			}
		}
	}()

	raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read failed", "err", err)
			}
			break
		}
		raw.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case msgStart:
			runID, err := sess.Start(r.Context(), msg.Query, domain.Mode(msg.Mode))
			if err != nil {
				s.replyErr(c, logger, err)
				continue
			}
			logger.Info("run accepted", "run_id", runID)

		case msgFeedback:
			fb, err := msg.feedback()
			if err != nil {
				s.replyErr(c, logger, err)
				continue
			}
			if err := sess.Feedback(fb); err != nil {
				s.replyErr(c, logger, err)
			}

		case msgCancel:
			sess.Cancel()

		default:
			s.replyErr(c, logger, errors.New("unknown message type: "+msg.Type))
		}
	}

	// Close cancels any in-flight run; the pump drains the queue and exits
	// when the session queue closes.
	sess.Close()
	<-pumpDone
	logger.Info("client disconnected")
}

// replyErr reports a connection-level error without terminating any run.
func (s *Server) replyErr(c *conn, logger *slog.Logger, err error) {
	logger.Warn("request rejected", "err", err)
	if werr := c.writeJSON(outboundMessage{Type: string(domain.EventError), Message: err.Error()}); werr != nil {
		logger.Warn("error reply failed", "err", werr)
	}
}
