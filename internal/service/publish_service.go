package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/marketpaper/quote-api/internal/config"
	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/pricing"
	"github.com/marketpaper/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PublishService writes a stored quote onto its CRM deal: one property
// patch (the primary contract), then best-effort line-item sync and
// optional stage advancement.
type PublishService struct {
	repo   *repository.QuoteRepository
	store  CRMStore
	sync   *SyncService
	cfg    config.CRMConfig
	logger *zap.Logger
}

func NewPublishService(repo *repository.QuoteRepository, store CRMStore, sync *SyncService, cfg config.CRMConfig, logger *zap.Logger) *PublishService {
	return &PublishService{repo: repo, store: store, sync: sync, cfg: cfg, logger: logger}
}

// Publish patches the deal with the quote's properties, advances the
// stage when allowed, and mirrors the line items. Only the property
// patch is fatal; sync errors are logged and reported in the result.
func (s *PublishService) Publish(ctx context.Context, dealID string, req *domain.PublishQuoteRequest) (*domain.PublishResult, error) {
	quoteID := req.QuoteID
	if quoteID == uuid.Nil {
		id, found, err := s.resolveQuoteID(ctx, dealID)
		if err != nil {
			return nil, fmt.Errorf("resolving quote for deal %s: %w", dealID, err)
		}
		if !found {
			return nil, ErrQuoteNotFound
		}
		quoteID = id
	}

	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("fetching quote: %w", err)
	}

	if req.PdfURL != "" {
		quote.PdfURL = req.PdfURL
	}

	hasPending := quote.HasPendingItems()
	totals := domain.QuoteTotals{
		Subtotal:     quote.Subtotal,
		TaxAmount:    quote.TaxAmount,
		Total:        quote.Total,
		TotalAreaSqm: quote.TotalAreaSqm,
	}

	props, err := s.buildDealProperties(quote, totals, hasPending)
	if err != nil {
		return nil, err
	}

	stageAdvanced := false
	// Hard business rule: a deal with pending items never advances,
	// regardless of the caller's flag.
	if req.MoveStageIfComplete && !hasPending {
		props[crm.PropDealStage] = s.cfg.QuoteSentStage
		stageAdvanced = true
	}

	if err := s.store.PatchObject(ctx, crm.ObjectTypeDeal, dealID, props); err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("patching deal %s: %w", dealID, err)
	}

	s.logger.Info("deal properties published",
		zap.String("deal_id", dealID),
		zap.String("quote_id", quote.ID.String()),
		zap.Bool("stage_advanced", stageAdvanced),
		zap.Bool("has_pending", hasPending))

	// Remember the binding so future publishes can find the quote
	if quote.DealID != dealID {
		quote.DealID = dealID
		if err := s.repo.Update(ctx, quote); err != nil {
			s.logger.Warn("saving deal binding failed",
				zap.String("quote_id", quote.ID.String()), zap.Error(err))
		}
	}

	result := &domain.PublishResult{
		DealID:        dealID,
		StageAdvanced: stageAdvanced,
		HasPending:    hasPending,
		Totals:        totals,
	}

	result.Sync = s.syncBestEffort(ctx, dealID, quote.Items)
	return result, nil
}

// syncBestEffort runs the line-item sync for deals in the configured
// pipeline. Failures are logged and carried on the report, never
// fatal: the property patch already succeeded and that is the primary
// contract.
func (s *PublishService) syncBestEffort(ctx context.Context, dealID string, items []domain.LineItem) *domain.SyncReport {
	inScope, err := s.dealInPipeline(ctx, dealID)
	if err != nil {
		s.logger.Warn("pipeline check failed, skipping line item sync",
			zap.String("deal_id", dealID), zap.Error(err))
		return &domain.SyncReport{Skipped: true}
	}
	if !inScope {
		s.logger.Info("deal outside quote pipeline, skipping line item sync",
			zap.String("deal_id", dealID))
		return &domain.SyncReport{Skipped: true}
	}

	report, err := s.sync.SyncLineItems(ctx, dealID, items)
	if err != nil {
		s.logger.Warn("line item sync failed",
			zap.String("deal_id", dealID), zap.Error(err))
		return &domain.SyncReport{Error: err.Error()}
	}
	return report
}

func (s *PublishService) dealInPipeline(ctx context.Context, dealID string) (bool, error) {
	deal, err := s.store.GetObject(ctx, crm.ObjectTypeDeal, dealID, []string{crm.PropPipeline})
	if err != nil {
		return false, err
	}
	return deal.Properties[crm.PropPipeline] == s.cfg.Pipeline, nil
}

func (s *PublishService) buildDealProperties(quote *domain.Quote, totals domain.QuoteTotals, hasPending bool) (map[string]string, error) {
	itemsJSON, err := domain.EncodeItems(quote.Items)
	if err != nil {
		return nil, err
	}

	props := map[string]string{
		crm.PropClientName:      quote.ClientName,
		crm.PropClientCompany:   quote.ClientCompany,
		crm.PropClientEmail:     quote.ClientEmail,
		crm.PropClientPhone:     quote.ClientPhone,
		crm.PropPaymentTerms:    quote.PaymentTermsText,
		crm.PropDeliveryTerms:   quote.DeliveryTermsText,
		crm.PropValidityTerms:   quote.ValidityText,
		crm.PropTotalSubtotal:   formatFloat(totals.Subtotal),
		crm.PropTotalTax:        formatFloat(totals.TaxAmount),
		crm.PropTotalFinal:      formatFloat(totals.Total),
		crm.PropTotalAreaSqm:    formatFloat(totals.TotalAreaSqm),
		crm.PropItemsJSON:       itemsJSON,
		crm.PropHasPendingItems: strconv.FormatBool(hasPending),
		crm.PropAmount:          formatFloat(totals.Total),
	}
	if quote.PdfURL != "" {
		props[crm.PropPdfURL] = quote.PdfURL
	}
	return props, nil
}

// RecalculateDealAreas walks every deal in the quote pipeline,
// recomputes the stored area total from the stored items JSON, and
// patches deals whose value drifted. It is a one-shot maintenance
// operation, invoked explicitly.
func (s *PublishService) RecalculateDealAreas(ctx context.Context) (*domain.RecalculateAreasResult, error) {
	result := &domain.RecalculateAreasResult{}
	after := ""

	for {
		page, err := s.store.SearchObjects(ctx, crm.ObjectTypeDeal, crm.SearchRequest{
			Filters: []crm.SearchFilter{
				{PropertyName: crm.PropPipeline, Operator: "EQ", Value: s.cfg.Pipeline},
			},
			Properties: []string{crm.PropDealName, crm.PropItemsJSON, crm.PropTotalAreaSqm},
			Limit:      100,
			After:      after,
		})
		if err != nil {
			return result, fmt.Errorf("searching deals: %w", err)
		}

		for _, deal := range page.Results {
			result.Scanned++
			updated, err := s.recalculateDeal(ctx, deal)
			if err != nil {
				result.Failed = append(result.Failed, deal.ID)
				s.logger.Warn("area recalculation failed",
					zap.String("deal_id", deal.ID), zap.Error(err))
				continue
			}
			if updated {
				result.Updated++
			}
		}

		if page.NextAfter == "" {
			break
		}
		after = page.NextAfter
	}

	s.logger.Info("deal area recalculation finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

func (s *PublishService) recalculateDeal(ctx context.Context, deal crm.Object) (bool, error) {
	items, err := domain.DecodeItems(deal.Properties[crm.PropItemsJSON])
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		return false, nil
	}

	want := pricing.AreaFromInterchange(items)
	stored, _ := strconv.ParseFloat(deal.Properties[crm.PropTotalAreaSqm], 64)
	if math.Abs(stored-want) <= 0.001 {
		return false, nil
	}

	if err := s.store.PatchObject(ctx, crm.ObjectTypeDeal, deal.ID, map[string]string{
		crm.PropTotalAreaSqm: formatFloat(want),
	}); err != nil {
		return false, err
	}

	s.logger.Info("deal area corrected",
		zap.String("deal_id", deal.ID),
		zap.Float64("before", stored),
		zap.Float64("after", want))
	return true, nil
}

// resolveQuoteID returns the quote bound to the deal, if any
func (s *PublishService) resolveQuoteID(ctx context.Context, dealID string) (uuid.UUID, bool, error) {
	quotes, _, err := s.repo.List(ctx, domain.QuoteFilter{DealID: dealID, Page: 1, PageSize: 1})
	if err != nil {
		return uuid.Nil, false, err
	}
	if len(quotes) == 0 {
		return uuid.Nil, false, nil
	}
	return quotes[0].ID, true, nil
}
