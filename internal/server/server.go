// Package server exposes the resolver over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/nickromney-org/github-release-updater-proxy/internal/policy"
	"github.com/nickromney-org/github-release-updater-proxy/internal/resolver"
)

// Server serves update descriptors and release assets
type Server struct {
	resolver       *resolver.Resolver
	access         *policy.Access
	trustedProxies []netip.Prefix
	logger         *slog.Logger
	router         *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTrustedProxies sets the peers whose X-Forwarded-For header is honoured
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(s *Server) {
		s.trustedProxies = prefixes
	}
}

// New creates a server and registers its routes
func New(res *resolver.Resolver, access *policy.Access, opts ...Option) *Server {
	s := &Server{
		resolver: res,
		access:   access,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/github/{username}/{repository}").Subrouter()
	api.HandleFunc("/updates", s.handleUpdates).Methods(http.MethodGet)
	api.HandleFunc("/assets/latest", s.handleLatestAsset).Methods(http.MethodGet)
	api.HandleFunc("/assets/latest/{architecture}", s.handleLatestAsset).Methods(http.MethodGet)
	api.HandleFunc("/assets/latest/{architecture}/{filename}", s.handleLatestAsset).Methods(http.MethodGet)

	s.router = r
	return s
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is like Run but accepts connections on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// clientAddr returns the caller address. X-Forwarded-For is only trusted
// when the direct peer is a configured proxy.
func (s *Server) clientAddr(r *http.Request) netip.Addr {
	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return netip.Addr{}
	}
	addr := peer.Addr().Unmap()

	if !s.isTrustedProxy(addr) {
		return addr
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return addr
	}

	first, _, _ := strings.Cut(forwarded, ",")
	client, err := netip.ParseAddr(strings.TrimSpace(first))
	if err != nil {
		return addr
	}
	return client.Unmap()
}

func (s *Server) isTrustedProxy(addr netip.Addr) bool {
	for _, p := range s.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
