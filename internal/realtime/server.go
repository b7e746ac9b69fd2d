// Package realtime mirrors the supervisor's sessions to WebSocket and REST
// clients.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emacsmirror/easky/internal/command"
	"github.com/emacsmirror/easky/internal/protocol"
	"github.com/emacsmirror/easky/internal/session"

	"github.com/gorilla/websocket"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow localhost origins for dev.
	},
}

var (
	errUnknownCommand = errors.New("unknown command")
	errCommandGroup   = errors.New("command group has no direct action")
)

// Options configures how mirror clients may start sessions.
type Options struct {
	Registry    *command.Registry
	Executable  string
	GlobalFlags []string
	Logger      *slog.Logger
}

// Server manages WebSocket connections and routes messages between
// clients and the supervisor.
type Server struct {
	sup       *session.Supervisor
	opts      Options
	logger    *slog.Logger
	clients   map[*client]string // client → subscription ID
	clientsMu sync.RWMutex
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	server *Server
}

// New creates a new realtime server.
func New(sup *session.Supervisor, opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = command.DefaultRegistry()
	}
	if opts.Executable == "" {
		opts.Executable = "eask"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sup:     sup,
		opts:    opts,
		logger:  logger,
		clients: make(map[*client]string),
	}
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint.
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API endpoints.
	mux.HandleFunc("GET /session", s.handleGetSession)
	mux.HandleFunc("POST /session", s.handleStartSession)
	mux.HandleFunc("DELETE /session", s.handleStopSession)
	mux.HandleFunc("GET /events", s.handleEvents)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleWebSocket upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		server: s,
	}

	subID, ch, history := s.sup.Subscribe()
	s.clientsMu.Lock()
	s.clients[c] = subID
	s.clientsMu.Unlock()

	// Send the latest session state, then replay buffered events so late
	// clients see the output of a session that is already running.
	if sess, ok := s.sup.Last(); ok {
		s.sendTo(c, sessionUpdate(sess))
	}
	for _, event := range history {
		if event.Type != session.EventStarted {
			s.sendEvent(c, event)
		}
	}

	go c.forward(ch)
	go c.writePump()
	go c.readPump()
}

// forward relays supervisor events until the subscription is closed.
func (c *client) forward(ch <-chan session.Event) {
	for event := range ch {
		c.server.sendEvent(c, event)
	}
}

// readPump reads messages from the WebSocket connection.
func (c *client) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		c.server.handleMessage(c, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeClient cleans up a disconnected client.
func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	subID, ok := s.clients[c]
	delete(s.clients, c)
	s.clientsMu.Unlock()

	if ok {
		s.sup.Unsubscribe(subID)
	}
	c.once.Do(func() { close(c.done) })
}

// handleMessage processes a validated client message.
func (s *Server) handleMessage(c *client, raw []byte) {
	msg, err := protocol.ValidateClientMessage(raw)
	if err != nil {
		s.sendError(c, protocol.ErrInvalidMessage, err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeSessionStart:
		var payload protocol.SessionStartPayload
		json.Unmarshal(msg.Payload, &payload)
		if _, err := s.start(payload); err != nil {
			s.sendError(c, errorCode(err), err.Error())
		}
	case protocol.TypeSessionStop:
		var payload protocol.SessionStopPayload
		json.Unmarshal(msg.Payload, &payload)
		if !payload.Confirm {
			s.sendError(c, protocol.ErrConfirmRequired, session.StopPrompt)
			return
		}
		stopped, err := s.sup.Stop(session.ConfirmAlways)
		if err != nil {
			s.sendError(c, protocol.ErrSpawnFailed, err.Error())
		} else if !stopped {
			s.sendError(c, protocol.ErrNoSession, "no session is running")
		}
	}
}

// start resolves a registered command path and starts it.
func (s *Server) start(p protocol.SessionStartPayload) (session.Session, error) {
	req := command.Request{
		Path:       strings.Fields(p.Command),
		Args:       p.Args,
		Executable: s.opts.Executable,
		Extra:      s.opts.GlobalFlags,
	}
	if !s.opts.Registry.Has(req.ID()) {
		return session.Session{}, fmt.Errorf("%w: %s", errUnknownCommand, req.ID())
	}
	action, err := s.opts.Registry.Resolve(req)
	if err != nil {
		return session.Session{}, err
	}
	if action.Kind != command.ActionRun {
		return session.Session{}, fmt.Errorf("%w: %s", errCommandGroup, req.ID())
	}

	confirm := session.ConfirmNever
	if p.Replace {
		confirm = session.ConfirmAlways
	}
	return s.sup.Start(action.CommandLine, confirm)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnknownCommand), errors.Is(err, errCommandGroup), errors.Is(err, command.ErrNotImplemented):
		return protocol.ErrUnknownCommand
	case errors.Is(err, session.ErrStartRefused):
		return protocol.ErrStartRefused
	default:
		return protocol.ErrSpawnFailed
	}
}

func sessionUpdate(sess session.Session) *protocol.Message {
	msg, _ := protocol.NewMessage(protocol.TypeSessionUpdate, protocol.SessionUpdatePayload{
		ID:          sess.ID,
		Status:      string(sess.Status),
		CommandLine: sess.CommandLine,
		WorkDir:     sess.WorkDir,
		StartedAt:   sess.StartedAt.Format(time.RFC3339Nano),
	})
	return msg
}

// eventMessage converts a supervisor event into its wire message.
func (s *Server) eventMessage(event session.Event) *protocol.Message {
	switch event.Type {
	case session.EventStarted, session.EventStopped:
		if sess, ok := s.snapshot(event.SessionID); ok {
			return sessionUpdate(sess)
		}
		status := session.StatusRunning
		if event.Type == session.EventStopped {
			status = session.StatusSignaled
		}
		return sessionUpdate(session.Session{ID: event.SessionID, Status: status, CommandLine: event.Data})
	case session.EventOutput:
		msg, _ := protocol.NewMessage(protocol.TypeSessionOutput, protocol.SessionOutputPayload{
			SessionID: event.SessionID,
			Data:      event.Data,
		})
		return msg
	case session.EventTimeout:
		msg, _ := protocol.NewMessage(protocol.TypeSessionTimeout, protocol.SessionTimeoutPayload{
			SessionID: event.SessionID,
			Message:   event.Data,
		})
		return msg
	case session.EventExit:
		payload := protocol.SessionTerminatedPayload{SessionID: event.SessionID, Message: event.Data}
		if sess, ok := s.snapshot(event.SessionID); ok {
			payload.Status = string(sess.Status)
			payload.ExitCode = sess.ExitCode
			payload.Signal = sess.Signal
		}
		msg, _ := protocol.NewMessage(protocol.TypeSessionTerminated, payload)
		return msg
	}
	return nil
}

func (s *Server) snapshot(id string) (session.Session, bool) {
	sess, ok := s.sup.Last()
	if !ok || sess.ID != id {
		return session.Session{}, false
	}
	return sess, true
}

func (s *Server) sendEvent(c *client, event session.Event) {
	if msg := s.eventMessage(event); msg != nil {
		s.sendTo(c, msg)
	}
}

func (s *Server) sendError(c *client, code, message string) {
	msg, _ := protocol.NewErrorMessage(code, message)
	s.sendTo(c, msg)
}

func (s *Server) sendTo(c *client, msg *protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		// Client buffer full, skip.
	}
}

// ClientCount returns the number of connected mirror clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
