package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/tessro/pop-upgrade/internal/paths"
)

// DefaultSocketPath returns the default Unix socket path.
func DefaultSocketPath() string {
	return paths.SocketPath()
}

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	connKey   contextKey = "conn"
	serverKey contextKey = "server"
)

// Handler processes IPC requests and returns responses.
type Handler interface {
	// Handle processes a request and returns a response.
	// Use ConnFromContext and ServerFromContext to reach the connection and server.
	Handle(ctx context.Context, req *Request) *Response
}

// ConnFromContext retrieves the client connection from the context.
func ConnFromContext(ctx context.Context) net.Conn {
	conn, _ := ctx.Value(connKey).(net.Conn)
	return conn
}

// ServerFromContext retrieves the server from the context.
func ServerFromContext(ctx context.Context) *Server {
	srv, _ := ctx.Value(serverKey).(*Server)
	return srv
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, req *Request) *Response

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) *Response {
	return f(ctx, req)
}

// Server speaks the daemon side of the IPC protocol over a Unix socket.
// It backs the stub daemons used in tests and local development.
type Server struct {
	socketPath string
	handler    Handler
	listener   net.Listener // Set in Start before goroutine, closed in Stop

	mu sync.Mutex
	// +checklocks:mu
	conns map[net.Conn]*serverConn
	// +checklocks:mu
	started bool
	// +checklocks:mu
	onAttach func(conn net.Conn, session string)
	done     chan struct{}
}

// serverConn is the per-connection write side. Responses and broadcast
// events share the encoder, so writes are serialized by mu.
type serverConn struct {
	mu sync.Mutex
	// +checklocks:mu
	encoder *json.Encoder
	// +checklocks:mu
	session string
	// +checklocks:mu
	attached bool
	// +checklocks:mu
	live bool // attach response written; events may flow
}

// NewServer creates a new daemon server.
func NewServer(socketPath string, handler Handler) *Server {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		conns:      make(map[net.Conn]*serverConn),
		done:       make(chan struct{}),
	}
}

// SocketPath returns the socket path this server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// OnAttach registers a callback that runs once an attach response has been
// written to the client. Events broadcast from the callback are guaranteed
// to reach the newly attached client after its attach response.
func (s *Server) OnAttach(fn func(conn net.Conn, session string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAttach = fn
}

// Start begins listening on the Unix socket.
// Returns an error if the server is already running or cannot bind.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.mu.Unlock()

	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	// Remove stale socket file if it exists
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.started = true
	s.mu.Unlock()

	slog.Info("daemon server started", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				slog.Error("accept connection failed", "error", err)
				continue
			}
		}

		sc := &serverConn{encoder: json.NewEncoder(conn)}

		s.mu.Lock()
		s.conns[conn] = sc
		connCount := len(s.conns)
		s.mu.Unlock()

		slog.Debug("client connected", "connections", connCount)

		go s.handleConnection(conn, sc)
	}
}

// handleConnection processes requests from a single client.
func (s *Server) handleConnection(conn net.Conn, sc *serverConn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		connCount := len(s.conns)
		s.mu.Unlock()
		slog.Debug("client disconnected", "connections", connCount)
	}()

	decoder := json.NewDecoder(conn)

	baseCtx := context.WithValue(context.Background(), connKey, conn)
	baseCtx = context.WithValue(baseCtx, serverKey, s)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return
			}
			slog.Warn("decode request failed", "error", err)
			sc.write(&Response{
				Success: false,
				Error:   fmt.Sprintf("decode request: %v", err),
			})
			return
		}

		slog.Debug("request received", "type", req.Type, "id", req.ID)

		resp := s.handler.Handle(baseCtx, &req)
		if resp == nil {
			resp = &Response{
				Type:    req.Type,
				ID:      req.ID,
				Success: false,
				Error:   "handler returned nil response",
			}
		}

		if resp.Type == "" {
			resp.Type = req.Type
		}
		if resp.ID == "" {
			resp.ID = req.ID
		}

		if !resp.Success {
			slog.Warn("request failed", "type", req.Type, "error", resp.Error)
		}

		if err := sc.write(resp); err != nil {
			slog.Debug("write response failed", "error", err)
			return
		}

		if session, ok := sc.goLive(); ok {
			s.mu.Lock()
			fn := s.onAttach
			s.mu.Unlock()
			if fn != nil {
				fn(conn, session)
			}
		}
	}
}

func (sc *serverConn) write(v any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.encoder.Encode(v)
}

// goLive promotes a freshly attached connection to live. It reports the
// session and true only on the transition.
func (sc *serverConn) goLive() (string, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.attached || sc.live {
		return "", false
	}
	sc.live = true
	return sc.session, true
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	connCount := len(s.conns)
	s.mu.Unlock()

	slog.Info("daemon server stopping", "active_connections", connCount)

	close(s.done)

	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[net.Conn]*serverConn)
	s.mu.Unlock()

	os.Remove(s.socketPath)

	slog.Info("daemon server stopped")

	return nil
}

// Attach registers a connection for streaming events. Events start flowing
// once the response to the current request has been written.
func (s *Server) Attach(conn net.Conn, session string) {
	s.mu.Lock()
	sc, ok := s.conns[conn]
	s.mu.Unlock()
	if !ok {
		return
	}

	sc.mu.Lock()
	sc.attached = true
	sc.session = session
	sc.mu.Unlock()
}

// Broadcast sends a stream event to all live attached clients.
func (s *Server) Broadcast(event *StreamEvent) {
	s.mu.Lock()
	clients := make([]*serverConn, 0, len(s.conns))
	for _, sc := range s.conns {
		clients = append(clients, sc)
	}
	s.mu.Unlock()

	for _, sc := range clients {
		sc.mu.Lock()
		if sc.live {
			if err := sc.encoder.Encode(event); err != nil {
				slog.Debug("broadcast failed", "session", sc.session, "error", err)
			}
		}
		sc.mu.Unlock()
	}
}

// Send writes a stream event to a single live attached connection.
func (s *Server) Send(conn net.Conn, event *StreamEvent) error {
	s.mu.Lock()
	sc, ok := s.conns[conn]
	s.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.live {
		return fmt.Errorf("send event: connection not attached")
	}
	return sc.encoder.Encode(event)
}

// AttachedCount returns the number of live attached streaming clients.
func (s *Server) AttachedCount() int {
	s.mu.Lock()
	clients := make([]*serverConn, 0, len(s.conns))
	for _, sc := range s.conns {
		clients = append(clients, sc)
	}
	s.mu.Unlock()

	n := 0
	for _, sc := range clients {
		sc.mu.Lock()
		if sc.live {
			n++
		}
		sc.mu.Unlock()
	}
	return n
}
