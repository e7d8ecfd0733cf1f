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

package note

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opennotes/opennotes/internal/audit"
	"github.com/opennotes/opennotes/internal/id"
	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/tenant"
)

// DefaultPageSize is used when a listing does not specify a page size
const DefaultPageSize = 10

// Service provides tenant-scoped note operations
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new note service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

// CreateInput are the caller-supplied fields of a new note
type CreateInput struct {
	Title   string
	Content string
	Tags    []string
}

// UpdateInput carries a partial update: nil fields are left untouched
type UpdateInput struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// ListFilter narrows a listing
type ListFilter struct {
	Archived bool
}

// Create validates the input, consults the subscription policy with the
// tenant's live note count, and persists the note. The count check and
// the insert are not serialized; two concurrent creations near the
// limit can both pass, so the stored count may briefly exceed the
// nominal quota under contention.
func (s *Service) Create(ctx context.Context, t *tenant.Tenant, author *identity.User, in CreateInput) (*Note, error) {
	title := strings.TrimSpace(in.Title)
	content := in.Content

	var fields []FieldError
	if err := validateTitle(title); err != nil {
		fields = append(fields, *err)
	}
	if err := validateContent(content); err != nil {
		fields = append(fields, *err)
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	count, err := s.repo.CountByTenant(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	if !t.Subscription.CanCreate(count) {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeQuotaDenied,
			TenantID: t.ID,
			ActorID:  author.ID,
			Metadata: map[string]any{
				audit.AttrCount: count,
				audit.AttrLimit: t.Subscription.NoteLimit,
			},
		})
		return nil, &QuotaError{
			CurrentCount: count,
			Limit:        t.Subscription.NoteLimit,
		}
	}

	now := time.Now()
	n := &Note{
		ID:        id.NewUUIDv7(),
		Title:     title,
		Content:   content,
		Tags:      trimTags(in.Tags),
		TenantID:  t.ID,
		AuthorID:  author.ID,
		Archived:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	n.Author = &AuthorRef{ID: author.ID, Email: author.Email, Role: author.Role}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeNoteCreated,
		TenantID: t.ID,
		ActorID:  author.ID,
		Resource: n.ID,
	})

	return n, nil
}

// List returns one page of the tenant's notes, newest first. An
// out-of-range page yields an empty page, not an error.
func (s *Service) List(ctx context.Context, scope tenant.Scope, filter ListFilter, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total, err := s.repo.Count(ctx, scope, filter.Archived)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	offset := (page - 1) * pageSize
	notes, err := s.repo.List(ctx, scope, filter.Archived, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if notes == nil {
		notes = []*Note{}
	}

	return &Page{
		Notes: notes,
		Pagination: Pagination{
			Current: page,
			Pages:   (total + pageSize - 1) / pageSize,
			Total:   total,
			Limit:   pageSize,
		},
	}, nil
}

// Get returns the note iff it exists within the caller's tenant scope
func (s *Service) Get(ctx context.Context, scope tenant.Scope, noteID string) (*Note, error) {
	return s.repo.GetByID(ctx, scope, noteID)
}

// Update applies a partial update: only supplied fields change, and
// each changed field is re-validated.
func (s *Service) Update(ctx context.Context, scope tenant.Scope, noteID string, in UpdateInput) (*Note, error) {
	n, err := s.repo.GetByID(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}

	var fields []FieldError
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			fields = append(fields, *err)
		} else {
			n.Title = title
		}
	}
	if in.Content != nil {
		if err := validateContent(*in.Content); err != nil {
			fields = append(fields, *err)
		} else {
			n.Content = *in.Content
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if in.Tags != nil {
		n.Tags = trimTags(*in.Tags)
	}

	if err := s.repo.Update(ctx, scope, n); err != nil {
		return nil, err
	}

	return n, nil
}

// Delete hard-deletes a note and returns its identity for confirmation
func (s *Service) Delete(ctx context.Context, scope tenant.Scope, actorID, noteID string) (*Deleted, error) {
	n, err := s.repo.GetByID(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, scope, noteID); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeNoteDeleted,
		TenantID: scope.TenantID,
		ActorID:  actorID,
		Resource: noteID,
	})

	return &Deleted{ID: n.ID, Title: n.Title}, nil
}

// SetArchived flips the archived flag. Idempotent: applying the same
// flag twice leaves the note in the same observable state.
func (s *Service) SetArchived(ctx context.Context, scope tenant.Scope, noteID string, archived bool) (*Note, error) {
	return s.repo.SetArchived(ctx, scope, noteID, archived)
}

func validateTitle(title string) *FieldError {
	if len(title) < 1 || len(title) > MaxTitleLength {
		return &FieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must be between 1 and %d characters", MaxTitleLength),
		}
	}
	return nil
}

func validateContent(content string) *FieldError {
	if len(content) < 1 || len(content) > MaxContentLength {
		return &FieldError{
			Field:   "content",
			Message: fmt.Sprintf("content must be between 1 and %d characters", MaxContentLength),
		}
	}
	return nil
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			out = append(out, t)
		}
	}
	return out
}
