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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/opennotes/opennotes/internal/audit"
	"github.com/opennotes/opennotes/internal/auth"
	"github.com/opennotes/opennotes/internal/config"
	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/note"
	"github.com/opennotes/opennotes/internal/observability/logger"
	"github.com/opennotes/opennotes/internal/observability/metrics"
	"github.com/opennotes/opennotes/internal/observability/tracing"
	"github.com/opennotes/opennotes/internal/store/postgres"
	"github.com/opennotes/opennotes/internal/tenant"
	transportHTTP "github.com/opennotes/opennotes/internal/transport/http"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting opennotes server")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if err := runSeed(cfg); err != nil {
			fmt.Printf("Seeding failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Initialize context
	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, databaseConfig(cfg))
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	noteRepo := postgres.NewNoteRepository(db)

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher()

	// Initialize services
	identityService := identity.NewService(userRepo, passwordHasher, auditLogger)
	noteService := note.NewService(noteRepo, auditLogger)
	tenantService := tenant.NewService(tenantRepo, noteRepo, userRepo, auditLogger)

	// Credential issuance and verification
	codec := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	verifier := auth.NewVerifier(codec, identityService, tenantService)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		identityService,
		noteService,
		tenantService,
		verifier,
		codec,
		auditLogger,
		meter,
		db,
		cfg.Observability.ServiceVersion,
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func databaseConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, databaseConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}

// runSeed creates two demo tenants with users and a few starter notes.
// All accounts use the password "password"; never run against a real
// deployment.
func runSeed(cfg *config.Config) error {
	ctx := context.Background()
	db, err := postgres.New(ctx, databaseConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	tenantRepo := postgres.NewTenantRepository(db)
	noteRepo := postgres.NewNoteRepository(db)

	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher()

	identityService := identity.NewService(userRepo, passwordHasher, auditLogger)
	noteService := note.NewService(noteRepo, auditLogger)
	tenantService := tenant.NewService(tenantRepo, noteRepo, userRepo, auditLogger)

	fmt.Println("Seeding demo data...")

	acme, err := tenantService.Create(ctx, "Acme Corporation", "acme", cfg.Subscription.FreeNoteLimit)
	if err != nil {
		return fmt.Errorf("failed to create tenant acme: %w", err)
	}
	globex, err := tenantService.Create(ctx, "Globex Industries", "globex", cfg.Subscription.FreeNoteLimit)
	if err != nil {
		return fmt.Errorf("failed to create tenant globex: %w", err)
	}

	acmeAdmin, err := identityService.Provision(ctx, acme.ID, "admin@acme.test", "password", identity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin@acme.test: %w", err)
	}
	acmeMember, err := identityService.Provision(ctx, acme.ID, "user@acme.test", "password", identity.RoleMember)
	if err != nil {
		return fmt.Errorf("failed to create user@acme.test: %w", err)
	}
	globexAdmin, err := identityService.Provision(ctx, globex.ID, "admin@globex.test", "password", identity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin@globex.test: %w", err)
	}
	if _, err := identityService.Provision(ctx, globex.ID, "user@globex.test", "password", identity.RoleMember); err != nil {
		return fmt.Errorf("failed to create user@globex.test: %w", err)
	}

	samples := []struct {
		tenant *tenant.Tenant
		author *identity.User
		input  note.CreateInput
	}{
		{acme, acmeAdmin, note.CreateInput{
			Title:   "Welcome to OpenNotes",
			Content: "This is your team's shared notebook. Notes are private to your tenant.",
			Tags:    []string{"welcome"},
		}},
		{acme, acmeMember, note.CreateInput{
			Title:   "Meeting notes 2026-01-15",
			Content: "Discussed the Q1 roadmap and the upcoming launch. Action items assigned.",
			Tags:    []string{"meetings", "q1"},
		}},
		{globex, globexAdmin, note.CreateInput{
			Title:   "Onboarding checklist",
			Content: "1. Create your account\n2. Invite your team\n3. Start writing notes",
			Tags:    []string{"onboarding"},
		}},
	}
	for _, s := range samples {
		if _, err := noteService.Create(ctx, s.tenant, s.author, s.input); err != nil {
			return fmt.Errorf("failed to create note %q: %w", s.input.Title, err)
		}
	}

	fmt.Println("Seeding complete.")
	fmt.Println("Tenants: acme (Acme Corporation), globex (Globex Industries)")
	fmt.Println("Users: admin@acme.test, user@acme.test, admin@globex.test, user@globex.test (password: password)")
	return nil
}
