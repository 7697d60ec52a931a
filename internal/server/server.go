// Package server hosts the game: it accepts WebSocket connections and runs
// one session per connection against the shared leaderboard.
package server

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/allenhichard/roletrando/internal/game"
	"github.com/allenhichard/roletrando/internal/ranking"
)

// Server accepts connections and spawns one session goroutine per client,
// unbounded. Sessions share nothing but the ranking store.
type Server struct {
	upgrader   websocket.Upgrader
	words      *game.List
	ranking    *ranking.Store
	logger     *log.Logger
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	httpServer *http.Server

	seedMu sync.Mutex
	seeds  *rand.Rand
}

// NewServer creates a server over a loaded word list and an open ranking
// store. seed drives the per-session RNGs, so a fixed seed gives
// reproducible games for testing.
func NewServer(words *game.List, store *ranking.Store, logger *log.Logger, seed int64) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		words:      words,
		ranking:    store,
		logger:     logger.WithPrefix("server"),
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		ctx:        ctx,
		cancel:     cancel,
		seeds:      rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
	go s.run()
	return s
}

// Handler returns the HTTP handler serving the game endpoint and a health
// check. Exposed separately from Start so tests can mount it on httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start runs the listener until Shutdown is called or the listener fails.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.Handler()}

	s.logger.Info("Starting server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and closes live sessions. In-flight
// ranking updates are safe: store operations are atomic and independent of
// connection lifetime.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for session := range s.sessions {
		session.close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// run handles session lifecycle bookkeeping.
func (s *Server) run() {
	for {
		select {
		case session := <-s.register:
			s.mu.Lock()
			s.sessions[session] = true
			total := len(s.sessions)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case session := <-s.unregister:
			s.mu.Lock()
			delete(s.sessions, session)
			total := len(s.sessions)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "user", session.Username(), "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket upgrades the connection and runs a session on it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	rng := s.newSessionRNG()
	engine := game.NewEngine(s.words.Supply(rng), rng)
	session := newSession(conn, engine, s.ranking, s.logger)

	select {
	case s.register <- session:
	case <-s.ctx.Done():
		_ = conn.Close()
		return
	}

	go func() {
		session.run()
		select {
		case s.unregister <- session:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// newSessionRNG derives an independent RNG for one session.
func (s *Server) newSessionRNG() *rand.Rand {
	s.seedMu.Lock()
	s1, s2 := s.seeds.Uint64(), s.seeds.Uint64()
	s.seedMu.Unlock()
	return rand.New(rand.NewPCG(s1, s2))
}
