package monitor

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
)

const (
	// Time allowed to write a message to a subscriber
	writeWait = 10 * time.Second

	// Outbound buffer per subscriber; a stalled subscriber is dropped
	// rather than blocking the serial stream
	subscriberBuffer = 256
)

// Server mirrors the serial monitor stream to WebSocket subscribers so
// the device output can be watched from a browser or another tool.
type Server struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	listener    net.Listener
	httpServer  *http.Server
}

type subscriber struct {
	conn *websocket.Conn
	send chan string
}

// NewServer returns a stream server that has not yet started listening.
func NewServer() *Server {
	return &Server{
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Start listens on addr and serves the stream at /monitor. An addr
// with port 0 picks a free port; Addr reports the result.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/monitor", s.handleMonitor)

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("monitor stream server stopped", zap.Error(err))
		}
	}()

	logging.Info("monitor stream server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan string, subscriberBuffer)}
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()
	logging.Info("monitor subscriber connected", zap.String("remote_addr", r.RemoteAddr))

	go s.writeLoop(sub)

	// Drain control frames; subscriber input is ignored
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(sub)
	logging.Info("monitor subscriber disconnected", zap.String("remote_addr", r.RemoteAddr))
}

func (s *Server) writeLoop(sub *subscriber) {
	for line := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			s.drop(sub)
			return
		}
	}
	_ = sub.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = sub.conn.Close()
}

// Broadcast sends one monitor line to every subscriber. Subscribers
// that cannot keep up are dropped.
func (s *Server) Broadcast(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub.send <- line:
		default:
			delete(s.subscribers, sub)
			close(sub.send)
		}
	}
}

func (s *Server) drop(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[sub]; ok {
		delete(s.subscribers, sub)
		close(sub.send)
	}
}

// Close stops the server and disconnects every subscriber.
func (s *Server) Close() error {
	s.mu.Lock()
	server := s.httpServer
	for sub := range s.subscribers {
		delete(s.subscribers, sub)
		close(sub.send)
	}
	s.mu.Unlock()

	if server != nil {
		return server.Close()
	}
	return nil
}
