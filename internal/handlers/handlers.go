package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	applog "recipebox/internal/log"
	"recipebox/internal/media"
)

const (
	sessionAuthenticatedKey = "auth:authenticated"
	sessionUserIDKey        = "auth:user:id"
	sessionUserEmailKey     = "auth:user:email"
	sessionUserNameKey      = "auth:user:name"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	mediaStore     *media.Store
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB, store *media.Store) {
	sessionManager = sm
	database = db
	mediaStore = store
}

// currentUserID extracts the authenticated account identity from the session.
func currentUserID(r *http.Request) (uint, bool) {
	if sessionManager == nil {
		return 0, false
	}
	if !sessionManager.GetBool(r.Context(), sessionAuthenticatedKey) {
		return 0, false
	}
	id := sessionManager.GetInt(r.Context(), sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// RequireAuthentication rejects requests without an active session.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUserID(r); !ok {
			applog.Debug(r.Context(), "rejecting unauthenticated request", "path", r.URL.Path)
			writeJSONError(r.Context(), w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(ctx, "failed to encode json response", "error", err)
	}
}

func writeJSONError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, map[string]string{"error": message})
}

// writeFieldErrors renders a 400 with per-field validation messages.
func writeFieldErrors(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	writeJSON(ctx, w, http.StatusBadRequest, map[string]any{"errors": fields})
}

// decodeJSON reads the request body into dst, reporting malformed payloads
// to the client. It returns false when a response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		applog.Debug(r.Context(), "failed to decode request body", "error", err)
		writeJSONError(r.Context(), w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// notFound hides ownership mismatches behind the same response as a missing
// row so other users' data cannot be probed for existence.
func notFound(ctx context.Context, w http.ResponseWriter) {
	writeJSONError(ctx, w, http.StatusNotFound, "not found")
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
