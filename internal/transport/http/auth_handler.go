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

	"github.com/opennotes/opennotes/internal/auth"
	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/note"
	"github.com/opennotes/opennotes/internal/tenant"
)

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userPayload is the outward user shape: public fields joined with the
// owning tenant, credential hash never included.
type userPayload struct {
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Role   string         `json:"role"`
	Tenant *tenantPayload `json:"tenant"`
}

type tenantPayload struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Subscription tenant.Subscription `json:"subscription"`
}

func newUserPayload(u *identity.User, t *tenant.Tenant) *userPayload {
	return &userPayload{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
		Tenant: &tenantPayload{
			ID:           t.ID,
			Name:         t.Name,
			Slug:         t.Slug,
			Subscription: t.Subscription,
		},
	}
}

// Login authenticates a user and issues a bearer token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation failed", "invalid request body")
		return
	}

	var details []note.FieldError
	if !strings.Contains(req.Email, "@") {
		details = append(details, note.FieldError{Field: "email", Message: "a valid email address is required"})
	}
	if len(req.Password) < 6 {
		details = append(details, note.FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	if len(details) > 0 {
		respondValidation(w, details)
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	t, err := h.tenantService.GetByID(r.Context(), user.TenantID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	token, err := h.codec.Issue(user.ID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if h.meter != nil {
		h.meter.Logins.Add(r.Context(), 1)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    newUserPayload(user.Sanitized(), t),
	})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "Access denied", "Authentication required")
		return
	}

	payload := newUserPayload(p.User, p.Tenant)
	respondJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":        payload.ID,
			"email":     payload.Email,
			"role":      payload.Role,
			"tenant":    payload.Tenant,
			"createdAt": p.User.CreatedAt,
		},
	})
}

// VerifyToken confirms the presented credential is valid
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if err := auth.Authorize(p); err != nil {
		respondError(w, http.StatusUnauthorized, "Access denied", "Authentication required")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Token is valid",
		"user":    newUserPayload(p.User, p.Tenant),
	})
}
