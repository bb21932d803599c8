// Package api serves the installer's JSON API for the browser front end.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Default rate limit.
const (
	DefaultRateLimit = 20
	DefaultRateBurst = 40
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Skills    driving.SkillService
	Providers driving.ProviderRegistry

	// RateLimit is requests per second; RateBurst the bucket size.
	RateLimit float64
	RateBurst int
}

// Server is the HTTP front of the skill and provider services.
type Server struct {
	skills    driving.SkillService
	providers driving.ProviderRegistry
	limiter   *rate.Limiter

	srv *http.Server
	ln  net.Listener
}

// New creates a server. Both services are required.
func New(opts Options) (*Server, error) {
	if opts.Skills == nil {
		return nil, errors.New("missing Skills")
	}
	if opts.Providers == nil {
		return nil, errors.New("missing Providers")
	}
	limit, burst := opts.RateLimit, opts.RateBurst
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if burst <= 0 {
		burst = DefaultRateBurst
	}
	return &Server{
		skills:    opts.Skills,
		providers: opts.Providers,
		limiter:   rate.NewLimiter(rate.Limit(limit), burst),
	}, nil
}

// Handler returns the routed API with logging, CORS and rate limiting.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, withLogging, withCORS, withRateLimit(s.limiter))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such route"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/providers", func(r chi.Router) {
			r.Get("/", s.handleListProviders)
			r.Post("/", s.handleSetProvider)
			r.Post("/custom", s.handleAddProvider)
			r.Post("/select", s.handleSelectProvider)
			r.Delete("/{id}", s.handleRemoveProvider)
		})

		r.Get("/skills", s.handleListSkills)
		r.Route("/skills/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSkill)
			r.Post("/install", s.handleInstall)
			r.Post("/install/{provider}", s.handleInstallTo)
			r.Post("/update", s.handleUpdate)
			r.Post("/uninstall", s.handleUninstall)
			r.Post("/uninstall/{provider}", s.handleUninstallFrom)
			r.Post("/configure", s.handleConfigure)
			r.Post("/test", s.handleTest)
			r.Post("/clear-auth", s.handleClearAuth)
			r.Post("/oauth", s.handleOAuth)
			r.Post("/oauth/{field}/{slug}", s.handleItemOAuth)
		})

		r.Get("/history", s.handleHistory)
		r.Get("/check-updates", s.handleCheckUpdates)
		r.Post("/update", s.handleSelfUpdate)
	})

	return r
}

// Start listens on addr and serves until ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context, addr string) error {
	if s.srv != nil {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	// No write timeout: authorization requests block until the browser returns.
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.ln = ln

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server stopped: %v", err)
		}
	}()

	logger.Info("api listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Close shuts the server down.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
