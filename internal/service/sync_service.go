package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/pricing"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultPurgeConcurrency = 5

// SyncService mirrors a quote's line items onto the remote deal. The
// protocol is purge-then-create: every remote line item attached to the
// deal is deleted before any new one is written, so republishing the
// same deal never accumulates duplicates.
type SyncService struct {
	store            CRMStore
	purgeConcurrency int
	logger           *zap.Logger
}

func NewSyncService(store CRMStore, purgeConcurrency int, logger *zap.Logger) *SyncService {
	if purgeConcurrency <= 0 {
		purgeConcurrency = defaultPurgeConcurrency
	}
	return &SyncService{store: store, purgeConcurrency: purgeConcurrency, logger: logger}
}

// SyncLineItems replaces the deal's remote line items with the given
// ones. A failed individual create is logged and skipped; it never
// blocks the remaining items.
func (s *SyncService) SyncLineItems(ctx context.Context, dealID string, items []domain.LineItem) (*domain.SyncReport, error) {
	report := &domain.SyncReport{}

	deleted, err := s.purge(ctx, dealID)
	if err != nil {
		return nil, err
	}
	report.Deleted = deleted

	for i := range items {
		if err := s.createRemoteItem(ctx, dealID, &items[i]); err != nil {
			report.Failed++
			s.logger.Warn("line item create failed",
				zap.String("deal_id", dealID),
				zap.Int("position", items[i].Position),
				zap.Error(err))
			continue
		}
		report.Created++
	}

	s.logger.Info("line items synced",
		zap.String("deal_id", dealID),
		zap.Int("deleted", report.Deleted),
		zap.Int("created", report.Created),
		zap.Int("failed", report.Failed))

	return report, nil
}

// purge deletes every remote line item attached to the deal. Deletes
// run concurrently under a bound to respect remote rate limits; all of
// them finish before the create phase may start.
func (s *SyncService) purge(ctx context.Context, dealID string) (int, error) {
	ids, err := s.store.ListAssociations(ctx, crm.ObjectTypeDeal, dealID, crm.ObjectTypeLineItem)
	if err != nil {
		// No listable items means nothing to purge
		s.logger.Debug("no existing line items to purge",
			zap.String("deal_id", dealID), zap.Error(err))
		return 0, nil
	}
	if len(ids) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.purgeConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := s.store.DeleteObject(gctx, crm.ObjectTypeLineItem, id); err != nil {
				if errors.Is(err, crm.ErrNotFound) {
					// Already gone; the purge goal is met
					return nil
				}
				return fmt.Errorf("deleting line item %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *SyncService) createRemoteItem(ctx context.Context, dealID string, li *domain.LineItem) error {
	props := map[string]string{
		crm.PropItemName:     domain.ItemDisplayName(li),
		crm.PropItemQuantity: strconv.Itoa(li.Quantity),
		crm.PropItemPrice:    formatFloat(resolveUnitPrice(li)),
		crm.PropItemLengthMm: formatFloat(li.LengthMm),
		crm.PropItemWidthMm:  formatFloat(li.WidthMm),
		crm.PropItemHeightMm: formatFloat(li.HeightMm),
		crm.PropItemBoxStyle: string(li.BoxStyle),
		crm.PropItemUnitArea: formatFloat(pricing.UnitArea(li)),
	}

	_, err := s.store.CreateObject(ctx, crm.ObjectTypeLineItem, props, []crm.AssociationSpec{
		{ToID: dealID, TypeID: crm.AssociationTypeLineItemToDeal},
	})
	return err
}

// resolveUnitPrice picks the best available price for the remote item:
// the computed unit price, then subtotal spread over quantity, then the
// raw input price, then zero.
func resolveUnitPrice(li *domain.LineItem) float64 {
	if li.ComputedUnitPrice > 0 {
		return li.ComputedUnitPrice
	}
	if li.Subtotal > 0 && li.Quantity > 0 {
		return li.Subtotal / float64(li.Quantity)
	}
	if li.BoxStyle.ManualPrice() && li.ManualUnitPrice > 0 {
		return li.ManualUnitPrice
	}
	if li.UnitPriceInput > 0 {
		return li.UnitPriceInput
	}
	return 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
