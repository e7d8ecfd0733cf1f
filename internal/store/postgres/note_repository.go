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
	"github.com/opennotes/opennotes/internal/note"
	"github.com/opennotes/opennotes/internal/tenant"
)

// NoteRepository implements note.Repository and tenant.NoteStats. Every
// query on existing notes carries the tenant scope in its WHERE clause;
// a note id from another tenant scans as no rows.
type NoteRepository struct {
	db *DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = `
	n.id, n.title, n.content, n.tags, n.tenant_id, n.author_id,
	n.archived, n.created_at, n.updated_at,
	u.id, u.email, u.role
`

// Create inserts a new note
func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO notes (id, tenant_id, author_id, title, content, tags, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.TenantID, n.AuthorID, n.Title, n.Content, n.Tags, n.Archived, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// GetByID retrieves a note within the tenant scope
func (r *NoteRepository) GetByID(ctx context.Context, scope tenant.Scope, id string) (*note.Note, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		JOIN users u ON u.id = n.author_id
		WHERE n.id = $1 AND n.tenant_id = $2
	`, id, scope.TenantID)

	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, note.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

// List returns a page of the tenant's notes, newest first
func (r *NoteRepository) List(ctx context.Context, scope tenant.Scope, archived bool, limit, offset int) ([]*note.Note, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes n
		JOIN users u ON u.id = n.author_id
		WHERE n.tenant_id = $1 AND n.archived = $2
		ORDER BY n.created_at DESC
		LIMIT $3 OFFSET $4
	`, scope.TenantID, archived, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Count counts the tenant's notes matching the archive filter
func (r *NoteRepository) Count(ctx context.Context, scope tenant.Scope, archived bool) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notes WHERE tenant_id = $1 AND archived = $2
	`, scope.TenantID, archived).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// Update persists the mutable fields and touches updated_at
func (r *NoteRepository) Update(ctx context.Context, scope tenant.Scope, n *note.Note) error {
	now := time.Now()
	result, err := r.db.pool.Exec(ctx, `
		UPDATE notes
		SET title = $3, content = $4, tags = $5, updated_at = $6
		WHERE id = $1 AND tenant_id = $2
	`, n.ID, scope.TenantID, n.Title, n.Content, n.Tags, now)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return note.ErrNoteNotFound
	}
	n.UpdatedAt = now
	return nil
}

// Delete hard-deletes a note within the tenant scope
func (r *NoteRepository) Delete(ctx context.Context, scope tenant.Scope, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM notes WHERE id = $1 AND tenant_id = $2
	`, id, scope.TenantID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return note.ErrNoteNotFound
	}
	return nil
}

// SetArchived flips the archived flag and returns the updated note
func (r *NoteRepository) SetArchived(ctx context.Context, scope tenant.Scope, id string, archived bool) (*note.Note, error) {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE notes
		SET archived = $3, updated_at = $4
		WHERE id = $1 AND tenant_id = $2
	`, id, scope.TenantID, archived, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to archive note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, note.ErrNoteNotFound
	}
	return r.GetByID(ctx, scope, id)
}

// CountByTenant counts all notes of a tenant, archived included. This
// is the number the subscription quota is checked against.
func (r *NoteRepository) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notes WHERE tenant_id = $1
	`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// RecentByTenant returns the tenant's most recently created notes with
// the author projection, for tenant statistics.
func (r *NoteRepository) RecentByTenant(ctx context.Context, tenantID string, limit int) ([]tenant.NoteSummary, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT n.id, n.title, n.tags, n.created_at, u.email, u.role
		FROM notes n
		JOIN users u ON u.id = n.author_id
		WHERE n.tenant_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent notes: %w", err)
	}
	defer rows.Close()

	summaries := []tenant.NoteSummary{}
	for rows.Next() {
		var s tenant.NoteSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Tags, &s.CreatedAt, &s.AuthorEmail, &s.AuthorRole); err != nil {
			return nil, fmt.Errorf("failed to scan note summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// CountByMonth buckets the tenant's notes by creation month and returns
// the trailing populated buckets, most recent first.
func (r *NoteRepository) CountByMonth(ctx context.Context, tenantID string, buckets int) ([]tenant.MonthCount, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM created_at)::int AS year,
		       EXTRACT(MONTH FROM created_at)::int AS month,
		       COUNT(*)::int
		FROM notes
		WHERE tenant_id = $1
		GROUP BY year, month
		ORDER BY year DESC, month DESC
		LIMIT $2
	`, tenantID, buckets)
	if err != nil {
		return nil, fmt.Errorf("failed to bucket notes by month: %w", err)
	}
	defer rows.Close()

	counts := []tenant.MonthCount{}
	for rows.Next() {
		var mc tenant.MonthCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan month bucket: %w", err)
		}
		counts = append(counts, mc)
	}
	return counts, rows.Err()
}

// scanNote scans one joined note row
func scanNote(row pgx.Row) (*note.Note, error) {
	var n note.Note
	var author note.AuthorRef
	err := row.Scan(
		&n.ID, &n.Title, &n.Content, &n.Tags, &n.TenantID, &n.AuthorID,
		&n.Archived, &n.CreatedAt, &n.UpdatedAt,
		&author.ID, &author.Email, &author.Role,
	)
	if err != nil {
		return nil, err
	}
	n.Author = &author
	return &n, nil
}
