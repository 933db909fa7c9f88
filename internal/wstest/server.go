// Package wstest runs an in-process websocket server for transport and
// session tests: it records everything the client sends and lets tests
// script server broadcasts and connection drops.
package wstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/wordrush/wordrush-go/internal/protocol"
)

// Server is a scriptable game-server stand-in.
type Server struct {
	httpServer *httptest.Server
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	received []protocol.Envelope
	receiveCh chan protocol.Envelope
	connectCh chan struct{}
}

// NewServer starts the server. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		receiveCh: make(chan protocol.Envelope, 64),
		connectCh: make(chan struct{}, 8),
	}
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the ws:// endpoint clients should dial.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http")
}

// Connected signals each accepted client connection.
func (s *Server) Connected() <-chan struct{} {
	return s.connectCh
}

// Received delivers every envelope the client sent, in receipt order.
func (s *Server) Received() <-chan protocol.Envelope {
	return s.receiveCh
}

// ReceivedSoFar returns a copy of everything received.
func (s *Server) ReceivedSoFar() []protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Envelope(nil), s.received...)
}

// Broadcast sends one envelope to the connected client.
func (s *Server) Broadcast(eventType protocol.EventType, payload any) error {
	env, err := protocol.NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Drop kills the current connection without a close handshake, simulating a
// transport-level failure.
func (s *Server) Drop() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Close shuts the server down.
func (s *Server) Close() {
	s.Drop()
	s.httpServer.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.mu.Unlock()

	select {
	case s.connectCh <- struct{}{}:
	default:
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		s.mu.Lock()
		s.received = append(s.received, env)
		s.mu.Unlock()
		select {
		case s.receiveCh <- env:
		default:
		}
	}
}
