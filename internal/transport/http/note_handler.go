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

package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/opennotes/opennotes/internal/note"
)

// CreateNoteRequest is the note creation payload
type CreateNoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdateNoteRequest carries a partial update; absent fields stay as
// they are.
type UpdateNoteRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

// ArchiveNoteRequest flips the archived flag
type ArchiveNoteRequest struct {
	Archived *bool `json:"archived"`
}

// CreateNote creates a new note for the caller's tenant
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed", "invalid request body")
		return
	}

	created, err := h.noteService.Create(r.Context(), p.Tenant, p.User, note.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if h.meter != nil {
		h.meter.NotesCreated.Add(r.Context(), 1)
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "Note created successfully",
		"note":    created,
	})
}

// ListNotes returns one page of the tenant's notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "limit", note.DefaultPageSize)
	archived := r.URL.Query().Get("archived") == "true"

	result, err := h.noteService.List(r.Context(), p.Scope(), note.ListFilter{Archived: archived}, page, pageSize)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetNote returns a single note within the caller's tenant scope
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	n, err := h.noteService.Get(r.Context(), p.Scope(), chi.URLParam(r, "noteID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"note": n})
}

// UpdateNote applies a partial update to a note
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed", "invalid request body")
		return
	}

	n, err := h.noteService.Update(r.Context(), p.Scope(), chi.URLParam(r, "noteID"), note.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Note updated successfully",
		"note":    n,
	})
}

// DeleteNote hard-deletes a note and confirms what was deleted
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	deleted, err := h.noteService.Delete(r.Context(), p.Scope(), p.User.ID, chi.URLParam(r, "noteID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Note deleted successfully",
		"note":    deleted,
	})
}

// ArchiveNote archives or unarchives a note
func (h *Handler) ArchiveNote(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	// Default to archiving when the body omits the flag
	archived := true
	var req ArchiveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Archived != nil {
		archived = *req.Archived
	}

	n, err := h.noteService.SetArchived(r.Context(), p.Scope(), chi.URLParam(r, "noteID"), archived)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	message := "Note archived successfully"
	if !archived {
		message = "Note unarchived successfully"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"note":    n,
	})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
