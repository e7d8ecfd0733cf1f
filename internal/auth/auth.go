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
	"errors"
	"fmt"
	"strings"

	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/tenant"
)

// ErrUnauthenticated covers every credential failure: missing or
// malformed header, bad signature, expired token, unknown or inactive
// user. Callers get one uniform error.
var ErrUnauthenticated = errors.New("authentication required")

// ForbiddenError is returned when an authenticated user lacks the role
// an operation requires. The message names the requirement, nothing
// about other tenants' data.
type ForbiddenError struct {
	RequiredRoles []string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("required role: %s", strings.Join(e.RequiredRoles, " or "))
}

// Principal is an authenticated (user, tenant, role) triple. The user's
// credential hash is stripped before the principal is built.
type Principal struct {
	User   *identity.User
	Tenant *tenant.Tenant
}

// Scope derives the tenant scope every subsequent data operation must
// be intersected with.
func (p *Principal) Scope() tenant.Scope {
	return tenant.Scope{TenantID: p.Tenant.ID}
}

// Authorize checks a principal's role against the operation's required
// role set. An empty set admits any authenticated principal. Calling it
// without a resolved principal is a programming error and fails closed.
func Authorize(p *Principal, requiredRoles ...string) error {
	if p == nil || p.User == nil {
		return ErrUnauthenticated
	}
	if len(requiredRoles) == 0 {
		return nil
	}
	for _, role := range requiredRoles {
		if p.User.Role == role {
			return nil
		}
	}
	return &ForbiddenError{RequiredRoles: requiredRoles}
}

// UserSource is the slice of user storage the verifier needs
type UserSource interface {
	GetByID(ctx context.Context, id string) (*identity.User, error)
}

// TenantSource is the slice of tenant storage the verifier needs
type TenantSource interface {
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

// Verifier resolves a bearer credential to a principal
type Verifier struct {
	codec   *TokenCodec
	users   UserSource
	tenants TenantSource
}

// NewVerifier creates a verifier
func NewVerifier(codec *TokenCodec, users UserSource, tenants TenantSource) *Verifier {
	return &Verifier{
		codec:   codec,
		users:   users,
		tenants: tenants,
	}
}

const bearerPrefix = "Bearer "

// Resolve validates the Authorization header value and resolves it to
// the authenticated user joined with its owning tenant. Pure read, no
// side effects.
func (v *Verifier) Resolve(ctx context.Context, authorization string) (*Principal, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, ErrUnauthenticated
	}

	userID, err := v.codec.Parse(strings.TrimPrefix(authorization, bearerPrefix))
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := v.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Active {
		// Soft-deleted accounts must not authenticate
		return nil, ErrUnauthenticated
	}

	t, err := v.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	return &Principal{
		User:   user.Sanitized(),
		Tenant: t,
	}, nil
}
