package egress

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/squadracorsepolito/cantranslate/internal"
	"github.com/squadracorsepolito/cantranslate/message"
)

const webSocketPath = "/frames"

type WebSocketConfig struct {
	Address      string
	WriteTimeout time.Duration
}

func NewDefaultWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		Address:      "localhost:8080",
		WriteTimeout: time.Second,
	}
}

// WebSocketSink serves /frames and sends every frame as a JSON
// [FrameRecord] to all the connected clients.
type WebSocketSink struct {
	tel *internal.Telemetry

	cfg *WebSocketConfig

	upgrader websocket.Upgrader

	mux     sync.Mutex
	clients map[*websocket.Conn]struct{}

	server   *http.Server
	listener net.Listener
}

func NewWebSocketSink(cfg *WebSocketConfig) *WebSocketSink {
	return &WebSocketSink{
		tel: internal.NewTelemetry("egress", "websocket"),

		cfg: cfg,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},

		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (s *WebSocketSink) Name() string {
	return "websocket"
}

// Init starts the HTTP server in background.
func (s *WebSocketSink) Init(_ context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle(webSocketPath, s)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.tel.LogError("websocket server failed", err)
		}
	}()

	s.tel.LogInfo("listening", "address", listener.Addr().String(), "path", webSocketPath)

	return nil
}

// Addr returns the address of the server, once initialized.
func (s *WebSocketSink) Addr() net.Addr {
	return s.listener.Addr()
}

// ServeHTTP upgrades the request and registers the client.
func (s *WebSocketSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.tel.LogError("failed to upgrade connection", err)
		return
	}

	s.mux.Lock()
	s.clients[conn] = struct{}{}
	s.mux.Unlock()

	s.tel.LogInfo("client connected", "remote", conn.RemoteAddr().String())

	// Clients only listen, reading detects when they go away.
	go func() {
		defer s.removeClient(conn)

		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}

func (s *WebSocketSink) removeClient(conn *websocket.Conn) {
	s.mux.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mux.Unlock()

	if ok {
		_ = conn.Close()
		s.tel.LogInfo("client disconnected", "remote", conn.RemoteAddr().String())
	}
}

// ClientCount returns the number of connected clients.
func (s *WebSocketSink) ClientCount() int {
	s.mux.Lock()
	defer s.mux.Unlock()

	return len(s.clients)
}

func (s *WebSocketSink) Deliver(_ context.Context, frame *message.Frame) error {
	rec := NewFrameRecord(frame)

	s.mux.Lock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		clients = append(clients, conn)
	}
	s.mux.Unlock()

	for _, conn := range clients {
		if s.cfg.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}

		if err := conn.WriteJSON(rec); err != nil {
			s.tel.LogWarn("dropping client", "remote", conn.RemoteAddr().String(), "reason", err.Error())
			s.removeClient(conn)
		}
	}

	return nil
}

func (s *WebSocketSink) Close() error {
	s.mux.Lock()
	for conn := range s.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}
	clear(s.clients)
	s.mux.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
