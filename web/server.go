// Package web serves a live progress page for the running render.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/b1naryth1ef/cartolive"
	"github.com/gorilla/websocket"
)

const clientQueue = 8

// Server is a cartolive.StatusDisplay that pushes every update to the
// browsers connected on /ws.
type Server struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

type client struct {
	out chan []byte
}

var _ cartolive.StatusDisplay = (*Server)(nil)

func NewServer(log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveIndex)
	mux.HandleFunc("/ws", s.serveSocket)
	mux.HandleFunc("/progress", s.serveProgress)
	return mux
}

func (s *Server) Update(snap cartolive.Snapshot) {
	s.publish(newProgressData(snap))
}

func (s *Server) Finish(snap cartolive.Snapshot) {
	s.publish(newProgressData(snap))
}

func (s *Server) Hide() {
	s.publish(ProgressData{State: "idle"})
}

func (s *Server) publish(data ProgressData) {
	b, err := json.Marshal(data)
	if err != nil {
		s.log.Error("failed to encode progress", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = b
	for c := range s.clients {
		select {
		case c.out <- b:
		default:
			// slow client, it will catch up on the next update
		}
	}
}

func (s *Server) serveIndex(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(rw, r)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Write(GetIndexHTML())
}

func (s *Server) serveProgress(rw http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		last, _ = json.Marshal(ProgressData{State: "idle"})
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.Write(last)
}

func (s *Server) serveSocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{out: make(chan []byte, clientQueue)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.out <- s.last
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the page never sends anything; reading only notices the close
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case b := <-c.out:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.log.Debug("progress client went away", "err", err)
				return
			}
		}
	}
}
