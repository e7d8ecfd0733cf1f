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
	"errors"
	"time"
)

// Plan constants
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// UnlimitedNotes is the note_limit sentinel for pro tenants. It means
// "no ceiling", not a literal bound.
const UnlimitedNotes = -1

// Domain errors
var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrSlugTaken       = errors.New("tenant slug already in use")
	ErrAlreadyUpgraded = errors.New("tenant is already on the pro plan")
	ErrNotOwnTenant    = errors.New("you can only upgrade your own tenant")
)

// Subscription is a tenant's plan and note quota
type Subscription struct {
	Plan      string `json:"plan"`
	NoteLimit int    `json:"noteLimit"`
}

// CanCreate reports whether a tenant on this subscription may create
// another note given its current note count. The limit is an exclusive
// upper bound: count == limit means the quota is exhausted.
func (s Subscription) CanCreate(currentCount int) bool {
	if s.Plan == PlanPro {
		return true
	}
	return currentCount < s.NoteLimit
}

// Tenant represents an isolated organization owning its own users and notes
type Tenant struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Upgrade transitions the tenant from free to pro. It is the only plan
// transition; there is no downgrade path.
func (t *Tenant) Upgrade() error {
	if t.Subscription.Plan == PlanPro {
		return ErrAlreadyUpgraded
	}
	t.Subscription.Plan = PlanPro
	t.Subscription.NoteLimit = UnlimitedNotes
	return nil
}

// Scope restricts every subsequent data operation to a single tenant.
// A Scope is only ever derived from an authenticated principal, never
// from client-supplied identifiers.
type Scope struct {
	TenantID string
}
