package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marketpaper/quote-api/internal/chat"
	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/service"
	"go.uber.org/zap"
)

type DealHandler struct {
	dealService    *service.DealService
	publishService *service.PublishService
	associations   *service.AssociationService
	logger         *zap.Logger
}

func NewDealHandler(dealService *service.DealService, publishService *service.PublishService, associations *service.AssociationService, logger *zap.Logger) *DealHandler {
	return &DealHandler{
		dealService:    dealService,
		publishService: publishService,
		associations:   associations,
		logger:         logger,
	}
}

// List returns the deals waiting for a quote, enriched with association
// counts and autofilled client properties.
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	deals, err := h.dealService.ListOpenDeals(r.Context())
	if err != nil {
		h.logger.Error("failed to list deals", zap.Error(err))
		respondUpstream(w, err, "Failed to list deals")
		return
	}
	respondJSON(w, http.StatusOK, deals)
}

func (h *DealHandler) Associations(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "id")

	snapshot, err := h.associations.Resolve(r.Context(), dealID)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondWithError(w, http.StatusNotFound, "Deal not found")
			return
		}
		h.logger.Error("failed to resolve associations",
			zap.String("deal_id", dealID), zap.Error(err))
		respondUpstream(w, err, "Failed to resolve associations")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// RepairAssociations links a contact and a company to the deal,
// creating them on the fly when the request carries attributes instead
// of IDs, and returns the refreshed snapshot.
func (h *DealHandler) RepairAssociations(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "id")

	var req domain.RepairAssociationsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	snapshot, err := h.associations.Repair(r.Context(), dealID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoRepairTarget):
			respondWithError(w, http.StatusBadRequest, "Request names nothing to associate")
		case errors.Is(err, service.ErrDealNotFound):
			respondWithError(w, http.StatusNotFound, "Deal not found")
		default:
			h.logger.Error("failed to repair associations",
				zap.String("deal_id", dealID), zap.Error(err))
			respondUpstream(w, err, "Failed to repair associations")
		}
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// Publish writes the stored quote onto the deal and mirrors its line
// items into the remote store.
func (h *DealHandler) Publish(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "id")

	var req domain.PublishQuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.publishService.Publish(r.Context(), dealID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuoteNotFound):
			respondWithError(w, http.StatusNotFound, "Quote not found")
		case errors.Is(err, service.ErrDealNotFound):
			respondWithError(w, http.StatusNotFound, "Deal not found")
		default:
			h.logger.Error("failed to publish quote",
				zap.String("deal_id", dealID), zap.Error(err))
			respondUpstream(w, err, "Failed to publish quote")
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *DealHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "id")

	result, err := h.dealService.Duplicate(r.Context(), dealID)
	if err != nil {
		if errors.Is(err, service.ErrDealNotFound) {
			respondWithError(w, http.StatusNotFound, "Deal not found")
			return
		}
		h.logger.Error("failed to duplicate deal",
			zap.String("deal_id", dealID), zap.Error(err))
		respondUpstream(w, err, "Failed to duplicate deal")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *DealHandler) ChatLink(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "id")

	result, err := h.dealService.ChatLink(r.Context(), dealID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDealNotFound):
			respondWithError(w, http.StatusNotFound, "Deal not found")
		case errors.Is(err, service.ErrChatLinkNotFound):
			respondWithError(w, http.StatusNotFound, "No associated contact has a chat link")
		default:
			h.logger.Error("failed to resolve chat link",
				zap.String("deal_id", dealID), zap.Error(err))
			respondUpstream(w, err, "Failed to resolve chat link")
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *DealHandler) SendQuote(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "id")

	var req domain.SendQuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.dealService.SendQuote(r.Context(), dealID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPhone):
			respondWithError(w, http.StatusBadRequest, "Phone number is not valid")
		case errors.Is(err, service.ErrWebhookDisabled):
			respondWithError(w, http.StatusServiceUnavailable, "Chat webhook is not configured")
		default:
			h.logger.Error("failed to send quote notification",
				zap.String("deal_id", dealID), zap.Error(err))
			respondUpstream(w, err, "Failed to send quote notification")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"dealId": dealID, "status": "sent"})
}

// RecalculateAreas is the maintenance endpoint that re-derives the area
// total of every deal in the quote pipeline from its stored items.
func (h *DealHandler) RecalculateAreas(w http.ResponseWriter, r *http.Request) {
	result, err := h.publishService.RecalculateDealAreas(r.Context())
	if err != nil {
		h.logger.Error("area recalculation failed", zap.Error(err))
		respondUpstream(w, err, "Area recalculation failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// respondUpstream distinguishes remote-store failures from local ones
func respondUpstream(w http.ResponseWriter, err error, fallback string) {
	var remote *crm.RemoteError
	var delivery *chat.DeliveryError
	switch {
	case errors.As(err, &remote), errors.As(err, &delivery):
		respondWithError(w, http.StatusBadGateway, fallback)
	case errors.Is(err, crm.ErrTimeout), errors.Is(err, chat.ErrTimeout):
		respondWithError(w, http.StatusGatewayTimeout, fallback)
	default:
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}
