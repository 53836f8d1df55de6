/**
 * @description
 * HTTP handlers for the free-use quota endpoints. GET /api/usage reports the
 * caller's remaining allowance; POST /api/usage/consume records one use of a
 * gated feature and answers 403 with a structured payload once an anonymous
 * caller runs out, which the frontend turns into a registration prompt.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/freedomfund/donation-service/internal/app"
	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
)

// UsageHandlers holds the usage service the handlers call into.
type UsageHandlers struct {
	usage *app.Usage
}

// NewUsageHandlers creates a new instance of UsageHandlers.
func NewUsageHandlers(usage *app.Usage) *UsageHandlers {
	return &UsageHandlers{usage: usage}
}

// GetUsageHandler reports the caller's current quota state.
func (h *UsageHandlers) GetUsageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, authenticated := GetUserID(ctx)

	snapshot, err := h.usage.Snapshot(ctx, GetClientKey(ctx, r), authenticated)
	if err != nil {
		log.Printf("level=error component=api endpoint=usage err=%v", err)
		writeError(w, http.StatusInternalServerError, "Could not load usage")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// ConsumeUsageHandler records one use of a gated feature.
func (h *UsageHandlers) ConsumeUsageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, authenticated := GetUserID(ctx)

	var req domain.ConsumeUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snapshot, err := h.usage.Consume(ctx, GetClientKey(ctx, r), req.Feature, authenticated)
	if err != nil {
		var quotaErr *app.QuotaExceededError
		if errors.As(err, &quotaErr) {
			writeJSON(w, http.StatusForbidden, domain.QuotaExceededResponse{
				Error:                quotaErr.Error(),
				Feature:              quotaErr.Feature,
				Usage:                quotaErr.Usage,
				RegistrationRequired: true,
			})
			return
		}
		if errors.Is(err, store.ErrUnknownFeature) {
			writeError(w, http.StatusBadRequest, "Unknown feature")
			return
		}
		log.Printf("level=error component=api endpoint=usage_consume err=%v", err)
		writeError(w, http.StatusInternalServerError, "Could not record usage")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
