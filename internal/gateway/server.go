// Package gateway exposes the inbound HTTP surface: the Twilio webhook and
// the health endpoint.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/nextlevelbuilder/warelay/internal/config"
)

// Server is the relay's HTTP server.
type Server struct {
	cfg     *config.Config
	webhook *WebhookHandler

	httpServer *http.Server
	mux        *http.ServeMux
}

func NewServer(cfg *config.Config, webhook *WebhookHandler) *Server {
	return &Server{cfg: cfg, webhook: webhook}
}

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/webhook", s.webhook)

	s.mux = mux
	return mux
}

// Start serves until ctx is cancelled, then drains with a 5s grace period.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()

	addr := fmt.Sprintf("%s:%d", s.cfg.Gateway.Host, s.cfg.Gateway.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("gateway starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("gateway server: %w", err)
	}
	return nil
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","time":%q}`, time.Now().UTC().Format(time.RFC3339))
}
