package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/service"
	"go.uber.org/zap"
)

type ContactHandler struct {
	contactService *service.ContactService
	logger         *zap.Logger
}

func NewContactHandler(contactService *service.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{contactService: contactService, logger: logger}
}

// Update patches a contact in the remote store. Chat identifiers are
// derived from the link when it parses.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "id")

	var req domain.UpdateContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	summary, err := h.contactService.Update(r.Context(), contactID, &req)
	if err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			respondWithError(w, http.StatusNotFound, "Contact not found")
			return
		}
		h.logger.Error("failed to update contact",
			zap.String("contact_id", contactID), zap.Error(err))
		respondUpstream(w, err, "Failed to update contact")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
