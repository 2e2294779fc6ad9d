package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/essence/internal/auth"
	"github.com/danmuck/essence/internal/config"
	"github.com/danmuck/essence/internal/essence"
	"github.com/danmuck/essence/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

const shutdownTimeout = 5 * time.Second

// Server exposes one dispatcher over HTTP.
type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	dispatcher *essence.Dispatcher
	validator  auth.Validator
	router     *gin.Engine
	certFile   string
	keyFile    string
	tls        bool
}

// Appear builds the router and middleware stack. Routes are registered by
// RegisterRoutes or Serve.
func Appear(cfg config.ServerConfig, d *essence.Dispatcher) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.LogRequests {
		r.Use(observability.RequestLogger(log.Logger, "/health", "/ready", "/metrics"))
	}
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", auth.TokenHeader},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	if d == nil {
		d = essence.New(cfg.DispatcherConfig())
	}
	return &Server{
		Name:       cfg.Name,
		Addr:       cfg.Addr,
		Appeared:   time.Now(),
		dispatcher: d,
		validator:  auth.FromConfig(cfg.AuthToken),
		router:     r,
		certFile:   cfg.TLSCertFile,
		keyFile:    cfg.TLSKeyFile,
		tls:        cfg.TLSEnabled(),
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Dispatcher() *essence.Dispatcher {
	return s.dispatcher
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener registers routes and serves on ln, over TLS when a cert and
// key are configured. On cancellation it drains in-flight requests and
// background tasks.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.RegisterRoutes()
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("service", s.Name).
			Str("addr", ln.Addr().String()).
			Bool("tls", s.tls).
			Msg("essence server listening")
		if s.tls {
			errCh <- srv.ServeTLS(ln, s.certFile, s.keyFile)
			return
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.dispatcher.Wait()
	log.Info().Str("service", s.Name).Msg("essence server stopped")
	return err
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
