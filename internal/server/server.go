// Package server is the network edge: it accepts websocket players,
// turns their frames into service calls and fans service events back
// out. A small HTTP surface serves profiles, history and board
// snapshots.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/okvist/wordrack/internal/room"
	servicegame "github.com/okvist/wordrack/internal/service/game"
	"github.com/okvist/wordrack/pkg/gamedto"
)

type Config struct {
	// WriteTimeout bounds a single frame write to one client.
	WriteTimeout time.Duration
	// QueueSize is the per-connection egress buffer.
	QueueSize int
}

type Server struct {
	svc    *servicegame.Service
	cfg    Config
	logger *zap.Logger

	mu    sync.RWMutex
	conns map[string]*conn
}

// New wires itself in as the service transport.
func New(svc *servicegame.Service, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	s := &Server{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		conns:  make(map[string]*conn),
	}
	svc.SetTransport(s.send)
	return s
}

func (s *Server) send(connID string, evt gamedto.Event) {
	s.mu.RLock()
	cn := s.conns[connID]
	s.mu.RUnlock()
	if cn != nil {
		cn.enqueue(evt)
	}
}

func (s *Server) addConn(cn *conn) {
	s.mu.Lock()
	s.conns[cn.id] = cn
	s.mu.Unlock()
}

func (s *Server) dropConn(cn *conn) {
	s.mu.Lock()
	delete(s.conns, cn.id)
	s.mu.Unlock()
}

func (s *Server) ConnCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Shutdown severs every live websocket. The HTTP server's own
// Shutdown does not reach hijacked connections.
func (s *Server) Shutdown() {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for _, cn := range s.conns {
		conns = append(conns, cn)
	}
	s.mu.Unlock()

	for _, cn := range conns {
		cn.stop()
		_ = cn.sock.Close(websocket.StatusGoingAway, "server shutdown")
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/healthz", s.handleHealthz)
		r.Get("/status", s.handleStatus)
		r.Get("/profiles/{username}", s.handleProfile)
		r.Get("/profiles/{username}/games", s.handleRecentGames)
		r.Get("/rooms/{code}/board.png", s.handleBoardPNG)
	})
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("http_encode_failed", zap.Error(err))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.svc.Stats()
	s.writeJSON(w, http.StatusOK, struct {
		servicegame.Stats
		Connections int               `json:"connections"`
		RoomList    []room.StatusRoom `json:"roomList"`
	}{Stats: stats, Connections: s.ConnCount(), RoomList: s.svc.RoomList()})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.svc.Profile(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, servicegame.ErrProfileNotFound) {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("profile_lookup_failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.svc.RecentGames(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.logger.Error("history_lookup_failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []*gamedto.GameSummary{}
	}
	s.writeJSON(w, http.StatusOK, struct {
		Games []*gamedto.GameSummary `json:"games"`
	}{Games: games})
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	png, err := s.svc.BoardPNG(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, room.ErrRoomNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("board_render_failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
