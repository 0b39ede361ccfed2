package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmarkowski/offers-app/internal/auth"
	"github.com/dmarkowski/offers-app/internal/httpx"
	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/policy"
	"github.com/dmarkowski/offers-app/internal/services"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// actorFrom builds the policy actor for the authenticated user, loading
// the role to decide privilege. An anonymous request yields a zero actor.
func actorFrom(r *http.Request, db *gorm.DB) policy.Actor {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return policy.Actor{}
	}
	var user models.User
	if err := db.Preload("Role").First(&user, uid).Error; err != nil {
		return policy.Actor{}
	}
	return policy.Actor{ID: user.ID, Privileged: user.Role.Privileged()}
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (uint, bool) {
	return namedIDParam(r, "id")
}

func namedIDParam(r *http.Request, name string) (uint, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// pagination mirrors the limit/page query convention used across list
// endpoints.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// writeServiceError maps service-layer failures onto the JSON error
// envelope. Unknown errors become an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
	case errors.Is(err, services.ErrNotEditable):
		httpx.JSONError(w, http.StatusConflict, "offer_not_editable", nil)
	case errors.Is(err, services.ErrMissingReason):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"reason": "required"})
	case errors.Is(err, services.ErrUnknownAction):
		httpx.JSONError(w, http.StatusBadRequest, "unknown_action", nil)
	case errors.Is(err, policy.ErrUnauthorized), errors.Is(err, policy.ErrNoPolicyDefined):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
