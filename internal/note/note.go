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
	"errors"
	"fmt"
	"time"
)

// Field constraints
const (
	MaxTitleLength   = 200
	MaxContentLength = 10000
)

// ErrNoteNotFound is returned for any scoped lookup miss. A note that
// exists in another tenant is indistinguishable from a note that does
// not exist at all.
var ErrNoteNotFound = errors.New("note not found")

// QuotaError is returned when the subscription policy denies a note
// creation. It carries the live count and limit for client display.
type QuotaError struct {
	CurrentCount int
	Limit        int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("free plan is limited to %d notes, please upgrade to pro for unlimited notes", e.Limit)
}

// FieldError describes a single field constraint violation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field constraint violations
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0].Message
	}
	return fmt.Sprintf("%d validation errors", len(e.Fields))
}

// AuthorRef is the read-only author projection attached to notes for
// display. It is derived on read, never stored.
type AuthorRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Note represents a note owned by a tenant. The tenant reference equals
// the author's tenant at creation time and never changes.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	TenantID  string     `json:"tenant_id"`
	AuthorID  string     `json:"author_id"`
	Author    *AuthorRef `json:"author,omitempty"`
	Archived  bool       `json:"isArchived"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Deleted is the confirmation returned by a hard delete
type Deleted struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

// Page is one page of notes plus its pagination
type Page struct {
	Notes      []*Note    `json:"notes"`
	Pagination Pagination `json:"pagination"`
}
