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
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/opennotes/opennotes/internal/auth"
	"github.com/opennotes/opennotes/internal/identity"
	"github.com/opennotes/opennotes/internal/note"
	"github.com/opennotes/opennotes/internal/observability/logger"
	"github.com/opennotes/opennotes/internal/tenant"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errLabel, message string) {
	respondJSON(w, status, map[string]string{
		"error":   errLabel,
		"message": message,
	})
}

// respondValidation writes a 400 with field-level details
func respondValidation(w http.ResponseWriter, details []note.FieldError) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Validation failed",
		"details": details,
	})
}

// respondDomainError translates domain errors into the response
// taxonomy. Every expected failure maps here; only genuinely
// unexpected errors reach the 500 branch, where the detail is logged
// and a generic body returned.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		quotaErr      *note.QuotaError
		validationErr *note.ValidationError
		forbiddenErr  *auth.ForbiddenError
	)

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "Access denied", "Authentication required")

	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Authentication failed", "Invalid email or password")

	case errors.As(err, &forbiddenErr):
		respondError(w, http.StatusForbidden, "Access denied", forbiddenErr.Error())

	case errors.Is(err, tenant.ErrNotOwnTenant):
		respondError(w, http.StatusForbidden, "Access denied", "You can only upgrade your own tenant")

	case errors.As(err, &quotaErr):
		if h.meter != nil {
			h.meter.QuotaDenials.Add(r.Context(), 1)
		}
		respondJSON(w, http.StatusForbidden, map[string]any{
			"error":        "Subscription limit reached",
			"message":      fmt.Sprintf("Free plan is limited to %d notes. Please upgrade to Pro for unlimited notes.", quotaErr.Limit),
			"currentCount": quotaErr.CurrentCount,
			"limit":        quotaErr.Limit,
		})

	case errors.As(err, &validationErr):
		respondValidation(w, validationErr.Fields)

	case errors.Is(err, note.ErrNoteNotFound):
		respondError(w, http.StatusNotFound, "Note not found", "Note does not exist or you do not have access to it")

	case errors.Is(err, tenant.ErrTenantNotFound):
		respondError(w, http.StatusNotFound, "Tenant not found", "Tenant does not exist")

	case errors.Is(err, tenant.ErrAlreadyUpgraded):
		respondError(w, http.StatusBadRequest, "Already upgraded", "Tenant is already on Pro plan")

	case errors.Is(err, tenant.ErrInviteeExists):
		respondError(w, http.StatusBadRequest, "User already exists", "A user with this email already exists")

	default:
		slog.ErrorContext(r.Context(), "unexpected internal error",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Internal server error", "Something went wrong")
	}
}
