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
	"testing"

	"github.com/google/uuid"
	"github.com/opennotes/opennotes/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) UpgradeToPro(ctx context.Context, id string) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

type mockNoteStats struct {
	mock.Mock
}

func (m *mockNoteStats) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *mockNoteStats) RecentByTenant(ctx context.Context, tenantID string, limit int) ([]NoteSummary, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]NoteSummary), args.Error(1)
}

func (m *mockNoteStats) CountByMonth(ctx context.Context, tenantID string, buckets int) ([]MonthCount, error) {
	args := m.Called(ctx, tenantID, buckets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]MonthCount), args.Error(1)
}

type mockUserStats struct {
	mock.Mock
}

func (m *mockUserStats) CountActiveByTenant(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *mockUserStats) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func freeTenant(id, slug string) *Tenant {
	return &Tenant{
		ID:   id,
		Name: "Tenant " + slug,
		Slug: slug,
		Subscription: Subscription{
			Plan:      PlanFree,
			NoteLimit: 3,
		},
	}
}

// TestPurpose: Validates that tenant creation generates a UUIDv7 id and starts on the free plan.
// Scope: Unit Test
// Security: Traceability and plan default integrity
// Expected: New tenant has a valid UUIDv7 id, the free plan and the configured note limit.
// Test Case ID: TEN-01
func TestTenant_Service_Create(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	service := NewService(repo, new(mockNoteStats), new(mockUserStats), auditLogger)

	ctx := context.Background()

	repo.On("GetBySlug", ctx, "acme").Return(nil, ErrTenantNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(tn *Tenant) bool {
		uid, err := uuid.Parse(tn.ID)
		if err != nil {
			return false
		}
		return uid.Version() == 7 &&
			tn.Slug == "acme" &&
			tn.Subscription.Plan == PlanFree &&
			tn.Subscription.NoteLimit == 3
	})).Return(nil)

	tn, err := service.Create(ctx, "Acme Corporation", "acme", 3)

	assert.NoError(t, err)
	assert.NotNil(t, tn)
	assert.Equal(t, PlanFree, tn.Subscription.Plan)
	repo.AssertExpectations(t)
}

// TestPurpose: Validates that a duplicate slug is rejected at creation.
// Scope: Unit Test
// Security: Tenant namespace integrity
// Expected: Creating a tenant whose slug is taken returns ErrSlugTaken.
// Test Case ID: TEN-02
func TestTenant_Service_Create_SlugTaken(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, new(mockNoteStats), new(mockUserStats), new(mockAudit))

	ctx := context.Background()
	repo.On("GetBySlug", ctx, "acme").Return(freeTenant("tenant-1", "acme"), nil)

	tn, err := service.Create(ctx, "Another Acme", "acme", 3)

	assert.ErrorIs(t, err, ErrSlugTaken)
	assert.Nil(t, tn)
}

// TestPurpose: Validates that tenant info reflects the live note count and quota headroom.
// Scope: Unit Test
// Security: Accurate quota reporting to clients
// Expected: Info carries the fresh count and CanCreateMore false when the quota is exhausted.
// Test Case ID: TEN-03
func TestTenant_Service_GetInfo_QuotaExhausted(t *testing.T) {
	repo := new(mockRepo)
	noteStats := new(mockNoteStats)
	service := NewService(repo, noteStats, new(mockUserStats), new(mockAudit))

	ctx := context.Background()
	tn := freeTenant("tenant-1", "acme")
	repo.On("GetByID", ctx, "tenant-1").Return(tn, nil)
	noteStats.On("CountByTenant", ctx, "tenant-1").Return(3, nil)

	info, err := service.GetInfo(ctx, Scope{TenantID: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, 3, info.NoteCount)
	assert.False(t, info.CanCreateMore, "TEN-03: count == limit must report no headroom")
}

// TestPurpose: Validates the composition of the admin statistics report.
// Scope: Unit Test
// Expected: Stats carries totals, the recent-notes projection and the month histogram.
// Test Case ID: TEN-04
func TestTenant_Service_GetStats(t *testing.T) {
	repo := new(mockRepo)
	noteStats := new(mockNoteStats)
	userStats := new(mockUserStats)
	service := NewService(repo, noteStats, userStats, new(mockAudit))

	ctx := context.Background()
	tn := freeTenant("tenant-1", "acme")
	recent := []NoteSummary{{ID: "note-1", Title: "Latest", AuthorEmail: "admin@acme.test", AuthorRole: "admin"}}
	byMonth := []MonthCount{{Year: 2026, Month: 8, Count: 2}, {Year: 2026, Month: 7, Count: 1}}

	repo.On("GetByID", ctx, "tenant-1").Return(tn, nil)
	noteStats.On("CountByTenant", ctx, "tenant-1").Return(3, nil)
	userStats.On("CountActiveByTenant", ctx, "tenant-1").Return(2, nil)
	noteStats.On("RecentByTenant", ctx, "tenant-1", RecentNotesLimit).Return(recent, nil)
	noteStats.On("CountByMonth", ctx, "tenant-1", HistogramBuckets).Return(byMonth, nil)

	stats, err := service.GetStats(ctx, Scope{TenantID: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, 3, stats.TotalNotes)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, recent, stats.RecentNotes)
	assert.Equal(t, byMonth, stats.NotesByMonth)
	assert.Equal(t, PlanFree, stats.Subscription.Plan)
}

// TestPurpose: Validates the happy-path upgrade of the caller's own tenant.
// Scope: Unit Test
// Security: Plan transition authorization
// Expected: The tenant moves to pro with unlimited notes and an audit event is recorded.
// Test Case ID: TEN-05
func TestTenant_Service_Upgrade(t *testing.T) {
	repo := new(mockRepo)
	noteStats := new(mockNoteStats)
	auditLogger := new(mockAudit)
	service := NewService(repo, noteStats, new(mockUserStats), auditLogger)

	ctx := context.Background()
	caller := freeTenant("tenant-1", "acme")
	upgraded := freeTenant("tenant-1", "acme")
	_ = upgraded.Upgrade()

	repo.On("GetBySlug", ctx, "acme").Return(caller, nil)
	repo.On("UpgradeToPro", ctx, "tenant-1").Return(upgraded, nil)
	noteStats.On("CountByTenant", ctx, "tenant-1").Return(3, nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeTenantUpgraded && e.TenantID == "tenant-1"
	})).Return()

	info, err := service.Upgrade(ctx, caller, "user-1", "acme")

	assert.NoError(t, err)
	assert.Equal(t, PlanPro, info.Subscription.Plan)
	assert.Equal(t, UnlimitedNotes, info.Subscription.NoteLimit)
	assert.True(t, info.CanCreateMore)
	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates that an admin cannot upgrade a tenant other than their own,
// even when the target slug exists.
// Scope: Unit Test
// Security: Cross-tenant privilege containment
// Expected: Upgrading a foreign slug returns ErrNotOwnTenant without touching storage.
// Test Case ID: TEN-06
func TestTenant_Service_Upgrade_ForeignTenant(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, new(mockNoteStats), new(mockUserStats), new(mockAudit))

	caller := freeTenant("tenant-1", "acme")

	info, err := service.Upgrade(context.Background(), caller, "user-1", "globex")

	assert.ErrorIs(t, err, ErrNotOwnTenant)
	assert.Nil(t, info)
	repo.AssertNotCalled(t, "UpgradeToPro", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that upgrading an already-pro tenant fails.
// Scope: Unit Test
// Expected: ErrAlreadyUpgraded, no storage write.
// Test Case ID: TEN-07
func TestTenant_Service_Upgrade_AlreadyPro(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, new(mockNoteStats), new(mockUserStats), new(mockAudit))

	ctx := context.Background()
	caller := freeTenant("tenant-1", "acme")
	_ = caller.Upgrade()

	repo.On("GetBySlug", ctx, "acme").Return(caller, nil)

	info, err := service.Upgrade(ctx, caller, "user-1", "acme")

	assert.ErrorIs(t, err, ErrAlreadyUpgraded)
	assert.Nil(t, info)
	repo.AssertNotCalled(t, "UpgradeToPro", mock.Anything, mock.Anything)
}

// TestPurpose: Validates the invitation acknowledgement and its uniqueness precondition.
// Scope: Unit Test
// Expected: A free email yields an acknowledgement naming the caller's tenant;
// an existing email yields ErrInviteeExists.
// Test Case ID: TEN-08
func TestTenant_Service_Invite(t *testing.T) {
	userStats := new(mockUserStats)
	auditLogger := new(mockAudit)
	service := NewService(new(mockRepo), new(mockNoteStats), userStats, auditLogger)

	ctx := context.Background()
	caller := freeTenant("tenant-1", "acme")

	userStats.On("EmailExists", ctx, "new@acme.test").Return(false, nil)
	userStats.On("EmailExists", ctx, "admin@acme.test").Return(true, nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeUserInvited && e.Resource == "new@acme.test"
	})).Return()

	inv, err := service.Invite(ctx, caller, "user-1", "new@acme.test", "member")
	assert.NoError(t, err)
	assert.Equal(t, "new@acme.test", inv.Email)
	assert.Equal(t, "member", inv.Role)
	assert.Equal(t, caller.Name, inv.Tenant)

	inv, err = service.Invite(ctx, caller, "user-1", "admin@acme.test", "member")
	assert.ErrorIs(t, err, ErrInviteeExists)
	assert.Nil(t, inv)
}
