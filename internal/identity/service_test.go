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

package identity

import (
	"context"
	"testing"

	"github.com/opennotes/opennotes/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a simple in-memory implementation of UserRepository
type MockUserRepository struct {
	users map[string]*User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Active = false
	return nil
}

func newTestService() (*Service, *MockUserRepository) {
	repo := NewMockUserRepository()
	return NewService(repo, NewPasswordHasher(), audit.NewSlogLogger()), repo
}

// TestPurpose: Validates the authentication flow: success, wrong password,
// unknown email and deactivated account.
// Scope: Unit Test
// Security: Credential verification and account-state enforcement; the error
// must not reveal which check failed.
// Expected: Correct credentials authenticate; every failure mode returns the
// same ErrInvalidCredentials.
// Test Case ID: IDN-01
func TestIdentity_Service_Authenticate(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	user, err := s.Provision(ctx, "tenant-1", "test@acme.test", "password123", RoleMember)
	require.NoError(t, err)

	authed, err := s.Authenticate(ctx, "test@acme.test", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = s.Authenticate(ctx, "test@acme.test", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody@acme.test", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "IDN-01: unknown email must be indistinguishable from bad password")

	require.NoError(t, s.Deactivate(ctx, "admin-1", user.ID))
	_, err = s.Authenticate(ctx, "test@acme.test", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "IDN-01: deactivated accounts must not authenticate")
}

// TestPurpose: Validates provisioning constraints: email format, role whitelist
// and global email uniqueness across tenants.
// Scope: Unit Test
// Security: Account namespace integrity
// Expected: Bad input is rejected with the specific domain error; a duplicate
// email fails even in a different tenant.
// Test Case ID: IDN-02
func TestIdentity_Service_Provision(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	user, err := s.Provision(ctx, "tenant-1", "alice@acme.test", "password123", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", user.TenantID)
	assert.Equal(t, RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = s.Provision(ctx, "tenant-1", "not-an-email", "password123", RoleMember)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.Provision(ctx, "tenant-1", "bob@acme.test", "password123", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = s.Provision(ctx, "tenant-2", "alice@acme.test", "password123", RoleMember)
	assert.ErrorIs(t, err, ErrUserAlreadyExists, "IDN-02: emails are unique across tenants")
}

// TestPurpose: Validates that the outward user copy never carries the hash.
// Scope: Unit Test
// Security: Credential hash leakage prevention (CWE-522)
// Expected: Sanitized strips the hash and leaves the original untouched.
// Test Case ID: IDN-03
func TestIdentity_User_Sanitized(t *testing.T) {
	u := &User{ID: "user-1", Email: "a@b.test", PasswordHash: "$argon2id$..."}

	s := u.Sanitized()

	assert.Empty(t, s.PasswordHash)
	assert.Equal(t, u.ID, s.ID)
	assert.NotEmpty(t, u.PasswordHash, "IDN-03: sanitizing must not mutate the source")
}
