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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opennotes/opennotes/internal/audit"
	"github.com/opennotes/opennotes/internal/id"
)

// ErrInviteeExists is returned when an invitation names an email that
// already belongs to a user. Emails are globally unique across tenants.
var ErrInviteeExists = errors.New("a user with this email already exists")

// RecentNotesLimit is the number of notes returned in Stats
const RecentNotesLimit = 5

// HistogramBuckets is the number of trailing month buckets in Stats
const HistogramBuckets = 12

// Service provides tenant aggregate operations
type Service struct {
	repo        Repository
	noteStats   NoteStats
	userStats   UserStats
	auditLogger audit.Logger
}

// NewService creates a new tenant service
func NewService(repo Repository, noteStats NoteStats, userStats UserStats, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		noteStats:   noteStats,
		userStats:   userStats,
		auditLogger: auditLogger,
	}
}

// Info is a tenant's public view plus its live usage
type Info struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Subscription  Subscription `json:"subscription"`
	NoteCount     int          `json:"noteCount"`
	CanCreateMore bool         `json:"canCreateMore"`
}

// Stats is the admin usage report for a tenant
type Stats struct {
	TotalNotes   int           `json:"totalNotes"`
	TotalUsers   int           `json:"totalUsers"`
	Subscription Subscription  `json:"subscription"`
	RecentNotes  []NoteSummary `json:"recentNotes"`
	NotesByMonth []MonthCount  `json:"notesByMonth"`
}

// Invitation acknowledges an invite request. No account is created and
// no message is sent; delivery is an external collaborator's concern.
type Invitation struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Tenant string `json:"tenant"`
}

// Create creates a new tenant on the free plan
func (s *Service) Create(ctx context.Context, name, slug string, freeNoteLimit int) (*Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if slug == "" {
		return nil, fmt.Errorf("tenant slug is required")
	}

	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	}

	now := time.Now()
	t := &Tenant{
		ID:   id.NewUUIDv7(),
		Name: name,
		Slug: slug,
		Subscription: Subscription{
			Plan:      PlanFree,
			NoteLimit: freeNoteLimit,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	return t, nil
}

// GetByID retrieves a tenant by id
func (s *Service) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetInfo returns the scoped tenant with its note count and whether the
// subscription allows another note. Both values are computed fresh on
// every call so they reflect concurrent mutations.
func (s *Service) GetInfo(ctx context.Context, scope Scope) (*Info, error) {
	t, err := s.repo.GetByID(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}

	count, err := s.noteStats.CountByTenant(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	return &Info{
		ID:            t.ID,
		Name:          t.Name,
		Slug:          t.Slug,
		Subscription:  t.Subscription,
		NoteCount:     count,
		CanCreateMore: t.Subscription.CanCreate(count),
	}, nil
}

// GetStats returns usage statistics for the scoped tenant: totals, the
// most recent notes with author projection, and a month-bucketed
// histogram of note creation, most recent bucket first.
func (s *Service) GetStats(ctx context.Context, scope Scope) (*Stats, error) {
	t, err := s.repo.GetByID(ctx, scope.TenantID)
	if err != nil {
		return nil, err
	}

	totalNotes, err := s.noteStats.CountByTenant(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	totalUsers, err := s.userStats.CountActiveByTenant(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	recent, err := s.noteStats.RecentByTenant(ctx, t.ID, RecentNotesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent notes: %w", err)
	}

	byMonth, err := s.noteStats.CountByMonth(ctx, t.ID, HistogramBuckets)
	if err != nil {
		return nil, fmt.Errorf("failed to build month histogram: %w", err)
	}

	return &Stats{
		TotalNotes:   totalNotes,
		TotalUsers:   totalUsers,
		Subscription: t.Subscription,
		RecentNotes:  recent,
		NotesByMonth: byMonth,
	}, nil
}

// Upgrade moves the caller's tenant to the pro plan. The slug must name
// the caller's own tenant; upgrading another tenant is forbidden even
// when the slug exists.
func (s *Service) Upgrade(ctx context.Context, caller *Tenant, actorID, slug string) (*Info, error) {
	if slug != caller.Slug {
		return nil, ErrNotOwnTenant
	}

	t, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if t.Subscription.Plan == PlanPro {
		return nil, ErrAlreadyUpgraded
	}

	upgraded, err := s.repo.UpgradeToPro(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantUpgraded,
		TenantID: upgraded.ID,
		ActorID:  actorID,
		Resource: upgraded.Slug,
		Metadata: map[string]any{audit.AttrNewPlan: PlanPro},
	})

	count, err := s.noteStats.CountByTenant(ctx, upgraded.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	return &Info{
		ID:            upgraded.ID,
		Name:          upgraded.Name,
		Slug:          upgraded.Slug,
		Subscription:  upgraded.Subscription,
		NoteCount:     count,
		CanCreateMore: true,
	}, nil
}

// Invite acknowledges an invitation for a new user of the caller's
// tenant. The email must not belong to any existing user, in any
// tenant. Account creation and mail delivery are stubbed out.
func (s *Service) Invite(ctx context.Context, caller *Tenant, actorID, email, role string) (*Invitation, error) {
	exists, err := s.userStats.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrInviteeExists
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserInvited,
		TenantID: caller.ID,
		ActorID:  actorID,
		Resource: email,
		Metadata: map[string]any{audit.AttrRole: role},
	})

	return &Invitation{
		Email:  email,
		Role:   role,
		Tenant: caller.Name,
	}, nil
}
