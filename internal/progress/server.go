package progress

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"seoaudit/internal/config"
)

// Server handles the HTTP server of the progress relay
type Server struct {
	srv     *http.Server
	service *Service
	log     *slog.Logger
	cfg     *config.HTTPServerConfig
}

// ServerOption configures the Server
type ServerOption func(*Server)

// NewServer creates a new server for the progress relay
func NewServer(service *Service, opts ...ServerOption) *Server {
	s := &Server{
		service: service,
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithServerConfig sets the server configuration
func WithServerConfig(cfg *config.HTTPServerConfig) ServerOption {
	return func(s *Server) { s.cfg = cfg }
}

// WithServerLogger sets the logger for the server
func WithServerLogger(log *slog.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// Handler returns the relay's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.corsMiddleware(s.service.WebSocketHandler().HandleWebSocket))
	return mux
}

// Start starts the relay subscriptions and then the HTTP server
func (s *Server) Start(ctx context.Context) error {
	if err := s.service.Start(ctx); err != nil {
		return err
	}

	addr := ":8081"
	if s.cfg != nil && s.cfg.Addr != "" {
		addr = s.cfg.Addr
	}

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("HTTP server starting", slog.String("addr", addr))
	return s.srv.ListenAndServe()
}

// Shutdown stops the relay subscriptions and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	s.service.Stop()

	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}

	return nil
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
