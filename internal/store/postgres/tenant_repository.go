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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/opennotes/opennotes/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create inserts a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenants (id, name, slug, plan, note_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.Name, t.Slug, t.Subscription.Plan, t.Subscription.NoteLimit, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return r.scanOne(ctx, `
		SELECT id, name, slug, plan, note_limit, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`, id)
}

// GetBySlug retrieves a tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.scanOne(ctx, `
		SELECT id, name, slug, plan, note_limit, created_at, updated_at
		FROM tenants
		WHERE slug = $1
	`, slug)
}

// UpgradeToPro performs the free->pro transition as a single
// conditional update. The WHERE plan = 'free' guard makes the
// transition atomic with respect to a concurrent second upgrade.
func (r *TenantRepository) UpgradeToPro(ctx context.Context, id string) (*tenant.Tenant, error) {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE tenants
		SET plan = $2, note_limit = $3, updated_at = $4
		WHERE id = $1 AND plan = $5
	`, id, tenant.PlanPro, tenant.UnlimitedNotes, time.Now(), tenant.PlanFree)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade tenant: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either missing or already pro; a fresh read tells which
		t, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if t.Subscription.Plan == tenant.PlanPro {
			return nil, tenant.ErrAlreadyUpgraded
		}
		return nil, fmt.Errorf("upgrade matched no row for tenant %s", id)
	}

	return r.GetByID(ctx, id)
}

func (r *TenantRepository) scanOne(ctx context.Context, query string, arg any) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := r.db.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.Name, &t.Slug,
		&t.Subscription.Plan, &t.Subscription.NoteLimit,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}
