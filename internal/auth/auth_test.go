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

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserSource struct {
	users map[string]*identity.User
}

func (s *stubUserSource) GetByID(ctx context.Context, id string) (*identity.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

type stubTenantSource struct {
	tenants map[string]*tenant.Tenant
}

func (s *stubTenantSource) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func newTestVerifier(codec *TokenCodec, users ...*identity.User) *Verifier {
	us := &stubUserSource{users: make(map[string]*identity.User)}
	ts := &stubTenantSource{tenants: make(map[string]*tenant.Tenant)}
	for _, u := range users {
		us.users[u.ID] = u
		ts.tenants[u.TenantID] = &tenant.Tenant{
			ID:   u.TenantID,
			Name: "Tenant " + u.TenantID,
			Slug: u.TenantID,
			Subscription: tenant.Subscription{
				Plan:      tenant.PlanFree,
				NoteLimit: 3,
			},
		}
	}
	return NewVerifier(codec, us, ts)
}

func activeUser(id, tenantID, role string) *identity.User {
	return &identity.User{
		ID:           id,
		TenantID:     tenantID,
		Email:        id + "@example.test",
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
	}
}

// TestPurpose: Validates the token issue/parse roundtrip and its failure modes.
// Scope: Unit Test
// Security: Bearer credential integrity (signature, expiry, key separation)
// Expected: A fresh token parses back to its subject; expired, tampered and
// foreign-key tokens all fail with the same uniform error.
// Test Case ID: TOK-01
func TestAuth_TokenCodec_Roundtrip(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)

	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	userID, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	expiredCodec := NewTokenCodec("test-secret", -time.Minute)
	expired, err := expiredCodec.Issue("user-1")
	require.NoError(t, err)
	_, err = codec.Parse(expired)
	assert.ErrorIs(t, err, ErrUnauthenticated, "TOK-01: expired tokens must not parse")

	otherCodec := NewTokenCodec("other-secret", time.Hour)
	foreign, err := otherCodec.Issue("user-1")
	require.NoError(t, err)
	_, err = codec.Parse(foreign)
	assert.ErrorIs(t, err, ErrUnauthenticated, "TOK-01: wrong signing key must not parse")

	_, err = codec.Parse(token + "tampered")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = codec.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// TestPurpose: Validates credential resolution to a principal, including the
// header format, user state and tenant join.
// Scope: Unit Test
// Security: Authentication gate; deactivated accounts must not resolve
// Expected: A valid bearer header resolves to the sanitized user joined with
// its tenant; every failure mode yields ErrUnauthenticated.
// Test Case ID: VRF-01
func TestAuth_Verifier_Resolve(t *testing.T) {
	codec := NewTokenCodec("test-secret", time.Hour)
	user := activeUser("user-1", "tenant-1", identity.RoleMember)
	verifier := newTestVerifier(codec, user)

	ctx := context.Background()
	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	p, err := verifier.Resolve(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.User.ID)
	assert.Equal(t, "tenant-1", p.Tenant.ID)
	assert.Empty(t, p.User.PasswordHash, "VRF-01: resolved principals carry no credential hash")
	assert.Equal(t, tenant.Scope{TenantID: "tenant-1"}, p.Scope())

	_, err = verifier.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "VRF-01: missing Bearer prefix")

	_, err = verifier.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ghost, err := codec.Issue("user-ghost")
	require.NoError(t, err)
	_, err = verifier.Resolve(ctx, "Bearer "+ghost)
	assert.ErrorIs(t, err, ErrUnauthenticated, "VRF-01: deleted user behind a valid token")

	user.Active = false
	_, err = verifier.Resolve(ctx, "Bearer "+token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "VRF-01: deactivated user behind a valid token")
}

// TestPurpose: Validates the role gate over resolved principals.
// Scope: Unit Test
// Security: Role-based authorization
// Expected: A matching role passes; a mismatch yields a ForbiddenError naming
// the required roles; a nil principal is unauthenticated, not forbidden.
// Test Case ID: RBA-01
func TestAuth_Authorize(t *testing.T) {
	member := &Principal{User: activeUser("user-1", "tenant-1", identity.RoleMember)}
	admin := &Principal{User: activeUser("user-2", "tenant-1", identity.RoleAdmin)}

	assert.NoError(t, Authorize(member, identity.RoleMember, identity.RoleAdmin))
	assert.NoError(t, Authorize(admin, identity.RoleAdmin))
	assert.NoError(t, Authorize(member), "RBA-01: an empty role set only requires authentication")

	err := Authorize(member, identity.RoleAdmin)
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Contains(t, forbidden.Error(), identity.RoleAdmin)

	assert.ErrorIs(t, Authorize(nil, identity.RoleAdmin), ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(&Principal{}, identity.RoleAdmin), ErrUnauthenticated)
}
