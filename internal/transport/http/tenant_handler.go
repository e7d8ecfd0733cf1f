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
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/note"
)

// InviteRequest is the invite payload
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TenantInfo returns the caller's tenant with live usage
func (h *Handler) TenantInfo(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	info, err := h.tenantService.GetInfo(r.Context(), p.Scope())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"tenant": info})
}

// TenantStats returns usage statistics for the caller's tenant
func (h *Handler) TenantStats(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	stats, err := h.tenantService.GetStats(r.Context(), p.Scope())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// UpgradeTenant moves the caller's own tenant to the pro plan
func (h *Handler) UpgradeTenant(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	info, err := h.tenantService.Upgrade(r.Context(), p.Tenant, p.User.ID, chi.URLParam(r, "slug"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Tenant upgraded to Pro plan successfully",
		"tenant":  info,
	})
}

// InviteUser acknowledges an invitation for a new tenant user
func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed", "invalid request body")
		return
	}

	var details []note.FieldError
	if !strings.Contains(req.Email, "@") {
		details = append(details, note.FieldError{Field: "email", Message: "a valid email address is required"})
	}
	if !identity.ValidRole(req.Role) {
		details = append(details, note.FieldError{Field: "role", Message: "role must be admin or member"})
	}
	if len(details) > 0 {
		respondValidation(w, details)
		return
	}

	invitation, err := h.tenantService.Invite(r.Context(), p.Tenant, p.User.ID, req.Email, req.Role)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "User invitation sent successfully",
		"details": invitation,
	})
}
