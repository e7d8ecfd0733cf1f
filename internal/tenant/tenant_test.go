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
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates the note quota decision for every plan/count combination.
// Scope: Unit Test
// Security: Quota enforcement boundary (exclusive upper bound)
// Expected: Free tenants are denied at count == limit; pro tenants are never denied.
// Test Case ID: SUB-01
func TestSubscription_CanCreate(t *testing.T) {
	tests := []struct {
		name  string
		sub   Subscription
		count int
		want  bool
	}{
		{"free below limit", Subscription{Plan: PlanFree, NoteLimit: 3}, 0, true},
		{"free one below limit", Subscription{Plan: PlanFree, NoteLimit: 3}, 2, true},
		{"free at limit", Subscription{Plan: PlanFree, NoteLimit: 3}, 3, false},
		{"free above limit", Subscription{Plan: PlanFree, NoteLimit: 3}, 4, false},
		{"free zero limit", Subscription{Plan: PlanFree, NoteLimit: 0}, 0, false},
		{"pro empty", Subscription{Plan: PlanPro, NoteLimit: UnlimitedNotes}, 0, true},
		{"pro huge count", Subscription{Plan: PlanPro, NoteLimit: UnlimitedNotes}, 1_000_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.CanCreate(tt.count),
				"SUB-01: CanCreate(%d) on %s/%d", tt.count, tt.sub.Plan, tt.sub.NoteLimit)
		})
	}
}

// TestPurpose: Validates the one-way plan transition from free to pro.
// Scope: Unit Test
// Security: Billing state integrity (no repeatable upgrades)
// Expected: The first upgrade succeeds and removes the note ceiling; a second upgrade fails.
// Test Case ID: SUB-02
func TestTenant_Upgrade(t *testing.T) {
	tn := &Tenant{
		ID:   "tenant-1",
		Name: "Acme",
		Slug: "acme",
		Subscription: Subscription{
			Plan:      PlanFree,
			NoteLimit: 3,
		},
	}

	err := tn.Upgrade()
	assert.NoError(t, err)
	assert.Equal(t, PlanPro, tn.Subscription.Plan)
	assert.Equal(t, UnlimitedNotes, tn.Subscription.NoteLimit)
	assert.True(t, tn.Subscription.CanCreate(1_000_000))

	err = tn.Upgrade()
	assert.ErrorIs(t, err, ErrAlreadyUpgraded, "SUB-02: upgrade must not be repeatable")
	assert.Equal(t, PlanPro, tn.Subscription.Plan)
}
