package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/org/assetvault/internal/access"
	"github.com/org/assetvault/internal/audit"
	"github.com/org/assetvault/internal/rotation"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/internal/vault"
)

// Config holds server configuration.
type Config struct {
	ListenAddr string
}

// Server is the API server.
type Server struct {
	store    storage.Store
	vaults   *vault.Service
	access   *access.Service
	rotation *rotation.Service
	cfg      Config
	log      zerolog.Logger
	httpSrv  *http.Server
}

// NewServer creates a fully wired Server.
func NewServer(store storage.Store, cfg Config, log zerolog.Logger) *Server {
	auditLog := audit.NewLogger(store, log)
	return &Server{
		store:    store,
		vaults:   vault.NewService(store, auditLog),
		access:   access.NewService(store, auditLog),
		rotation: rotation.NewService(store, auditLog),
		cfg:      cfg,
		log:      log,
	}
}

// BuildRouter wires up all routes and returns a chi router.
func (s *Server) BuildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware)
	r.Use(newRateLimiter(100, 200).middleware)

	// Unauthenticated
	r.Handle("/metrics", MetricsHandler())
	r.Get("/v1/sys/health", s.HealthHandler)

	// Principal-scoped routes. The session layer in front of this service
	// authenticates users and forwards identity via headers.
	r.Group(func(r chi.Router) {
		r.Use(principalMiddleware)

		// Vaults
		r.Post("/v1/vaults", s.VaultCreateHandler)
		r.Get("/v1/vaults", s.VaultListHandler)
		r.Get("/v1/vaults/{id}", s.VaultGetHandler)
		r.Put("/v1/vaults/{id}", s.VaultUpdateHandler)
		r.Delete("/v1/vaults/{id}", s.VaultDeleteHandler)
		r.Get("/v1/vaults/{id}/versions", s.VaultVersionsHandler)
		r.Get("/v1/vaults/{id}/export", s.VaultExportHandler)
		r.Post("/v1/vaults/import", s.VaultImportHandler)
		r.Get("/v1/assets/{assetID}/vault", s.VaultByAssetHandler)

		// Secrets
		r.Post("/v1/vaults/{id}/secrets", s.SecretAddHandler)
		r.Get("/v1/vaults/{id}/secrets", s.SecretListHandler)
		r.Get("/v1/secrets/{id}", s.SecretGetHandler)
		r.Get("/v1/secrets/{id}/value", s.SecretRevealHandler)
		r.Put("/v1/secrets/{id}", s.SecretUpdateHandler)
		r.Delete("/v1/secrets/{id}", s.SecretDeleteHandler)

		// Standalone credentials
		r.Post("/v1/credentials", s.CredentialCreateHandler)
		r.Get("/v1/credentials", s.CredentialSearchHandler)
		r.Get("/v1/credentials/{id}", s.CredentialGetHandler)
		r.Get("/v1/credentials/{id}/value", s.CredentialRevealHandler)
		r.Put("/v1/credentials/{id}", s.CredentialUpdateHandler)
		r.Delete("/v1/credentials/{id}", s.CredentialDeleteHandler)

		// Access control
		r.Post("/v1/access/grants", s.GrantHandler)
		r.Delete("/v1/access/grants", s.RevokeHandler)
		r.Get("/v1/access/grants", s.GrantListHandler)
		r.Get("/v1/vaults/{id}/access-log", s.AccessLogHandler)
		r.Post("/v1/access/requests", s.RequestAccessHandler)
		r.Get("/v1/access/requests", s.RequestListHandler)
		r.Post("/v1/access/requests/{id}/approve", s.RequestApproveHandler)
		r.Post("/v1/access/requests/{id}/deny", s.RequestDenyHandler)

		// Rotation
		r.Post("/v1/secrets/{id}/rotate", s.RotateHandler)
		r.Post("/v1/secrets/{id}/emergency-rotate", s.EmergencyRotateHandler)
		r.Get("/v1/secrets/{id}/rotation-history", s.RotationHistoryHandler)
		r.Put("/v1/vaults/{id}/rotation-schedule", s.ScheduleSetHandler)
		r.Get("/v1/vaults/{id}/rotation-schedule", s.ScheduleGetHandler)
		r.Delete("/v1/vaults/{id}/rotation-schedule", s.ScheduleDisableHandler)
		r.Get("/v1/rotation/alerts", s.RotationAlertsHandler)
		r.Get("/v1/rotation/compliance", s.ComplianceHandler)
		r.Post("/v1/rotation/batches", s.BatchCreateHandler)
		r.Get("/v1/rotation/batches/{id}", s.BatchGetHandler)
		r.Post("/v1/rotation/batches/{id}/execute", s.BatchExecuteHandler)

		// Offline password tools
		r.Post("/v1/password/generate", s.PasswordGenerateHandler)
		r.Post("/v1/password/strength", s.PasswordStrengthHandler)
	})

	return r
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.BuildRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("starting HTTP server")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// RefreshGauges updates the vault and secret count gauges. Called
// periodically from the server main loop.
func (s *Server) RefreshGauges(ctx context.Context) {
	if n, err := s.store.CountVaults(ctx); err == nil {
		vaultsTotal.Set(float64(n))
	}
	if n, err := s.store.CountAllSecrets(ctx); err == nil {
		secretsTotal.Set(float64(n))
	}
}
