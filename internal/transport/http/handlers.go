// Copyright 2026 The OpenNotes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opennotes/opennotes/internal/audit"
	"github.com/opennotes/opennotes/internal/auth"
	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/note"
	"github.com/opennotes/opennotes/internal/observability/metrics"
	"github.com/opennotes/opennotes/internal/tenant"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger reports whether the persistent store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	noteService     *note.Service
	tenantService   *tenant.Service
	verifier        *auth.Verifier
	codec           *auth.TokenCodec
	auditLogger     audit.Logger
	meter           *metrics.Meter
	db              Pinger
	version         string
	startedAt       time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	noteService *note.Service,
	tenantService *tenant.Service,
	verifier *auth.Verifier,
	codec *auth.TokenCodec,
	auditLogger audit.Logger,
	meter *metrics.Meter,
	db Pinger,
	version string,
) *Handler {
	return &Handler{
		identityService: identityService,
		noteService:     noteService,
		tenantService:   tenantService,
		verifier:        verifier,
		codec:           codec,
		auditLogger:     auditLogger,
		meter:           meter,
		db:              db,
		version:         version,
		startedAt:       time.Now(),
	}
}

// NewRouter creates a new HTTP router. Each protected route is built by
// explicit composition: credential verification, then the role gate,
// then the scoped operation, with early returns on failure.
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetProfile)
			r.Get("/auth/verify", h.VerifyToken)

			r.Route("/notes", func(r chi.Router) {
				r.Use(RequireRole(identity.RoleMember, identity.RoleAdmin))
				r.Post("/", h.CreateNote)
				r.Get("/", h.ListNotes)
				r.Get("/{noteID}", h.GetNote)
				r.Put("/{noteID}", h.UpdateNote)
				r.Delete("/{noteID}", h.DeleteNote)
				r.Patch("/{noteID}/archive", h.ArchiveNote)
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/info", h.TenantInfo)
				r.With(RequireRole(identity.RoleAdmin)).Get("/stats", h.TenantStats)
				r.With(RequireRole(identity.RoleAdmin)).Post("/{slug}/upgrade", h.UpgradeTenant)
				r.With(RequireRole(identity.RoleAdmin)).Post("/invite", h.InviteUser)
			})
		})
	})

	return r
}

// HealthCheck returns the health status, including store reachability
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	status := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		dbStatus = "disconnected"
		status = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Seconds(),
		"version":   h.version,
		"database": map[string]string{
			"status": dbStatus,
		},
	}
	if status != http.StatusOK {
		body["status"] = "error"
		body["message"] = "Database connection failed"
	}

	respondJSON(w, status, body)
}
