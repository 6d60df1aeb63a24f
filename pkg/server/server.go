// Package server exposes a session over HTTP and a websocket push channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ethfaucet/pkg/metrics"
	"ethfaucet/pkg/session"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller is the part of a session the server drives.
type Controller interface {
	State() session.State
	Subscribe() session.Subscriber
	Unsubscribe(session.Subscriber)
	Connect(ctx context.Context) error
	Deposit(ctx context.Context) (session.ActionResult, error)
	Withdraw(ctx context.Context) (session.ActionResult, error)
	Reload()
}

type Server struct {
	ctrl    Controller
	log     *zap.Logger
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
	// base outlives single requests: a submitted transaction keeps being
	// awaited after its client hangs up.
	base context.Context
}

// NewServer builds the routes. m and log may be nil.
func NewServer(c Controller, m *metrics.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		ctrl:    c,
		log:     log,
		clients: make(map[*websocket.Conn]bool),
		mux:     http.NewServeMux(),
		base:    context.Background(),
	}
	s.routes(m)
	return s
}

func (s *Server) routes(m *metrics.Metrics) {
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/connect", s.handleConnect)
	s.mux.HandleFunc("POST /api/deposit", s.handleAction(s.ctrl.Deposit))
	s.mux.HandleFunc("POST /api/withdraw", s.handleAction(s.ctrl.Withdraw))
	s.mux.HandleFunc("POST /api/reload", s.handleReload)
	s.mux.HandleFunc("/ws", s.handleWS)
	if m != nil {
		s.mux.Handle("GET /metrics", m.Handler())
	}
}

// Handler returns the routes, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until ctx ends.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.base = ctx
	go s.listenToSession(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("API server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	err := s.ctrl.Connect(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.ctrl.State())
	case errors.Is(err, session.ErrNoProvider):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err))
	case errors.Is(err, session.ErrNoAccount):
		writeJSON(w, http.StatusForbidden, errorBody(err))
	default:
		writeJSON(w, http.StatusBadGateway, errorBody(err))
	}
}

func (s *Server) handleAction(act func(context.Context) (session.ActionResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := act(s.base)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, res)
		case errors.Is(err, session.ErrCannotAct):
			writeJSON(w, http.StatusConflict, res)
		default:
			writeJSON(w, http.StatusBadGateway, res)
		}
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reload()
	writeJSON(w, http.StatusAccepted, s.ctrl.State())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	// Send initial state before the connection can receive broadcasts.
	s.mu.Lock()
	err = conn.WriteJSON(map[string]interface{}{
		"type":  "initial",
		"state": s.ctrl.State(),
	})
	if err == nil {
		s.clients[conn] = true
	}
	s.mu.Unlock()
	if err != nil {
		return
	}

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) listenToSession(ctx context.Context) {
	sub := s.ctrl.Subscribe()
	defer s.ctrl.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			s.broadcast(event)
		}
	}
}

func (s *Server) broadcast(event session.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			s.log.Debug("dropping websocket client", zap.Error(err))
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}
