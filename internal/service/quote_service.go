package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/pricing"
	"github.com/marketpaper/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteService manages locally stored quotes. All derived pricing
// fields are recomputed here on every write; client-supplied values for
// them are ignored.
type QuoteService struct {
	repo   *repository.QuoteRepository
	logger *zap.Logger
}

func NewQuoteService(repo *repository.QuoteRepository, logger *zap.Logger) *QuoteService {
	return &QuoteService{repo: repo, logger: logger}
}

func (s *QuoteService) Create(ctx context.Context, req *domain.CreateQuoteRequest) (*domain.QuoteDTO, error) {
	quote, err := quoteFromRequest(req)
	if err != nil {
		return nil, err
	}

	totals := pricing.Recompute(quote.Items)
	applyTotals(quote, totals)

	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.logger.Info("quote created",
		zap.String("quote_id", quote.ID.String()),
		zap.String("deal_id", quote.DealID),
		zap.Int("items", len(quote.Items)))

	return toQuoteDTO(quote), nil
}

func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("fetching quote: %w", err)
	}
	return toQuoteDTO(quote), nil
}

func (s *QuoteService) List(ctx context.Context, filter domain.QuoteFilter) (*domain.PaginatedResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	quotes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	dtos := make([]domain.QuoteDTO, 0, len(quotes))
	for i := range quotes {
		dtos = append(dtos, *toQuoteDTO(&quotes[i]))
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Update replaces the whole quote, line items included
func (s *QuoteService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateQuoteRequest) (*domain.QuoteDTO, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("fetching quote: %w", err)
	}

	quote, err := quoteFromRequest(req)
	if err != nil {
		return nil, err
	}
	quote.BaseModel = existing.BaseModel

	totals := pricing.Recompute(quote.Items)
	applyTotals(quote, totals)

	if err := s.repo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}

	s.logger.Info("quote updated",
		zap.String("quote_id", quote.ID.String()),
		zap.Int("items", len(quote.Items)))

	return toQuoteDTO(quote), nil
}

func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuoteNotFound
		}
		return fmt.Errorf("fetching quote: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting quote: %w", err)
	}
	s.logger.Info("quote deleted", zap.String("quote_id", id.String()))
	return nil
}

// Recalculate re-derives prices and totals from the stored inputs.
// Calling it on an unchanged quote is a no-op for the stored values.
func (s *QuoteService) Recalculate(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("fetching quote: %w", err)
	}

	totals := pricing.Recompute(quote.Items)
	applyTotals(quote, totals)

	if err := s.repo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("saving recalculated quote: %w", err)
	}
	return toQuoteDTO(quote), nil
}

func quoteFromRequest(req *domain.CreateQuoteRequest) (*domain.Quote, error) {
	items := make([]domain.LineItem, 0, len(req.Items))
	for i, ir := range req.Items {
		if !ir.BoxStyle.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBoxStyle, ir.BoxStyle)
		}
		markup := 1.0
		if ir.MarkupFactor != nil {
			markup = *ir.MarkupFactor
		}
		items = append(items, domain.LineItem{
			Description:     ir.Description,
			BoxStyle:        ir.BoxStyle,
			LengthMm:        ir.LengthMm,
			WidthMm:         ir.WidthMm,
			HeightMm:        ir.HeightMm,
			QualityLabel:    ir.QualityLabel,
			ColorLabel:      ir.ColorLabel,
			Quantity:        ir.Quantity,
			UnitPriceInput:  ir.UnitPriceInput,
			ManualUnitPrice: ir.ManualUnitPrice,
			MarkupFactor:    markup,
			ColorCount:      ir.ColorCount,
			QuotePending:    ir.QuotePending,
			ManualAreaSqm:   ir.ManualAreaSqm,
			Position:        i,
		})
	}

	return &domain.Quote{
		DealID:            req.DealID,
		ClientName:        req.ClientName,
		ClientCompany:     req.ClientCompany,
		ClientEmail:       req.ClientEmail,
		ClientPhone:       req.ClientPhone,
		ClientAddress:     req.ClientAddress,
		PaymentKind:       req.PaymentKind,
		DeliveryKind:      req.DeliveryKind,
		PaymentTermsText:  req.PaymentTermsText,
		DeliveryTermsText: req.DeliveryTermsText,
		ValidityText:      req.ValidityText,
		FixedConditions:   req.FixedConditions,
		PdfURL:            req.PdfURL,
		Items:             items,
	}, nil
}

func applyTotals(quote *domain.Quote, totals domain.QuoteTotals) {
	quote.Subtotal = totals.Subtotal
	quote.TaxAmount = totals.TaxAmount
	quote.Total = totals.Total
	quote.TotalAreaSqm = totals.TotalAreaSqm
}

func toQuoteDTO(quote *domain.Quote) *domain.QuoteDTO {
	items := make([]domain.LineItemDTO, 0, len(quote.Items))
	for i := range quote.Items {
		li := &quote.Items[i]
		items = append(items, domain.LineItemDTO{
			ID:                li.ID,
			Description:       li.Description,
			BoxStyle:          li.BoxStyle,
			LengthMm:          li.LengthMm,
			WidthMm:           li.WidthMm,
			HeightMm:          li.HeightMm,
			QualityLabel:      li.QualityLabel,
			ColorLabel:        li.ColorLabel,
			Quantity:          li.Quantity,
			UnitPriceInput:    li.UnitPriceInput,
			ManualUnitPrice:   li.ManualUnitPrice,
			MarkupFactor:      li.MarkupFactor,
			ColorCount:        li.ColorCount,
			QuotePending:      li.QuotePending,
			ManualAreaSqm:     li.ManualAreaSqm,
			ComputedUnitPrice: li.ComputedUnitPrice,
			Subtotal:          li.Subtotal,
			UnitAreaSqm:       pricing.UnitArea(li),
		})
	}

	return &domain.QuoteDTO{
		ID:                quote.ID,
		DealID:            quote.DealID,
		ClientName:        quote.ClientName,
		ClientCompany:     quote.ClientCompany,
		ClientEmail:       quote.ClientEmail,
		ClientPhone:       quote.ClientPhone,
		ClientAddress:     quote.ClientAddress,
		PaymentKind:       quote.PaymentKind,
		DeliveryKind:      quote.DeliveryKind,
		PaymentTermsText:  quote.PaymentTermsText,
		DeliveryTermsText: quote.DeliveryTermsText,
		ValidityText:      quote.ValidityText,
		FixedConditions:   quote.FixedConditions,
		PdfURL:            quote.PdfURL,
		Totals: domain.QuoteTotals{
			Subtotal:     quote.Subtotal,
			TaxAmount:    quote.TaxAmount,
			Total:        quote.Total,
			TotalAreaSqm: quote.TotalAreaSqm,
		},
		HasPending: quote.HasPendingItems(),
		Items:      items,
		CreatedAt:  quote.CreatedAt,
		UpdatedAt:  quote.UpdatedAt,
	}
}
