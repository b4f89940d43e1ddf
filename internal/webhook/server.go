package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Host    string
	Port    int
	Handler *Handler
	Trace   *Hub
}

// Server hosts the webhook endpoint plus health and trace endpoints.
type Server struct {
	host  string
	port  int
	trace *Hub
	mux   *http.ServeMux
	srv   *http.Server
}

// NewServer wires routes for the given handler.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		host:  cfg.Host,
		port:  cfg.Port,
		trace: cfg.Trace,
		mux:   http.NewServeMux(),
	}
	if s.host == "" {
		s.host = "0.0.0.0"
	}

	s.mux.Handle("/webhook", cfg.Handler)
	s.mux.HandleFunc("/health", s.handleHealth)
	if s.trace != nil {
		s.mux.HandleFunc("/ws", s.trace.Attach)
	}
	return s
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.mux,
	}

	if s.trace != nil {
		go s.trace.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[Webhook] ✅ Listening → http://%s:%d/webhook", s.host, s.port)
	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"observers": s.observerCount(),
	})
}

func (s *Server) observerCount() int {
	if s.trace == nil {
		return 0
	}
	return s.trace.ObserverCount()
}
