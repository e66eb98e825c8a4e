package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/ms_saludplus_facturas/internal/infrastructure/config"
	httperrors "3tcapital/ms_saludplus_facturas/internal/infrastructure/http"
	"3tcapital/ms_saludplus_facturas/internal/infrastructure/http/middleware"
)

// Routes served under /api/v1.
const (
	RouteElectronicInvoice = "/facturas/electronica"
	RouteChangeIssueDate   = "/facturas/cambiar-fecha-emision"
	RouteNumberInvoices    = "/facturas/numerar"
)

// Server wraps the HTTP server and its authenticator.
type Server struct {
	cfg        config.AppConfig
	log        *slog.Logger
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// Options wires the handlers. A nil invoice handler is served as 503 so the
// process still starts when a collaborator is missing.
type Options struct {
	Config           config.AppConfig
	Logger           *slog.Logger
	HealthHandler    http.HandlerFunc
	FacturaHandler   http.HandlerFunc
	EmissionHandler  http.HandlerFunc
	NumberingHandler http.HandlerFunc
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(auth.Middleware)

	r.Get("/health", opts.HealthHandler)

	httpCfg := opts.Config.HTTP
	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Deadline(httpCfg.DownloadTimeout)).
			Get(RouteElectronicInvoice, orUnavailable(opts.FacturaHandler, "facturas electrónicas", opts.Logger))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Deadline(httpCfg.RequestTimeout))
			r.Post(RouteChangeIssueDate, orUnavailable(opts.EmissionHandler, "cambio de fecha de emisión", opts.Logger))
			r.Get(RouteNumberInvoices, orUnavailable(opts.NumberingHandler, "numeración de facturas", opts.Logger))
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusNotFound, "Recurso no encontrado", []string{"La ruta solicitada no existe"}, opts.Logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusMethodNotAllowed, "Método no permitido", []string{"Método HTTP no soportado en esta ruta"}, opts.Logger)
	})

	srv := &http.Server{
		Addr:         httpCfg.Address(),
		Handler:      r,
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	return &Server{cfg: opts.Config, log: opts.Logger, httpServer: srv, auth: auth}, nil
}

func orUnavailable(h http.HandlerFunc, feature string, log *slog.Logger) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio no disponible",
			[]string{fmt.Sprintf("El servicio de %s no está configurado", feature)}, log)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server", "timeout", s.cfg.HTTP.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the authenticator's background refresher.
func (s *Server) Close() {
	s.auth.Close()
}
