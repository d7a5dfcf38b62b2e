package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/service"
	"go.uber.org/zap"
)

type QuoteHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

func NewQuoteHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService, logger: logger}
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := h.quoteService.List(r.Context(), domain.QuoteFilter{
		DealID:   r.URL.Query().Get("dealId"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.logger.Error("failed to list quotes", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list quotes")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	quote, err := h.quoteService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBoxStyle) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create quote", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create quote")
		return
	}

	respondJSON(w, http.StatusCreated, quote)
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	quote, err := h.quoteService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuoteNotFound) {
			respondWithError(w, http.StatusNotFound, "Quote not found")
			return
		}
		h.logger.Error("failed to fetch quote", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch quote")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateQuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	quote, err := h.quoteService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuoteNotFound):
			respondWithError(w, http.StatusNotFound, "Quote not found")
		case errors.Is(err, service.ErrInvalidBoxStyle):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update quote", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to update quote")
		}
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	if err := h.quoteService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrQuoteNotFound) {
			respondWithError(w, http.StatusNotFound, "Quote not found")
			return
		}
		h.logger.Error("failed to delete quote", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete quote")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// Recalculate re-derives every computed price and total from the stored
// inputs and persists the result.
func (h *QuoteHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	quote, err := h.quoteService.Recalculate(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuoteNotFound) {
			respondWithError(w, http.StatusNotFound, "Quote not found")
			return
		}
		h.logger.Error("failed to recalculate quote", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to recalculate quote")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func parseQuoteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid quote ID")
		return uuid.Nil, false
	}
	return id, true
}
