package pricing_test

import (
	"testing"

	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheetItem(lengthMm, widthMm float64, qty int, pricePerSqm float64) domain.LineItem {
	li := domain.LineItem{
		BoxStyle:       domain.BoxStyleSheet,
		LengthMm:       lengthMm,
		WidthMm:        widthMm,
		Quantity:       qty,
		UnitPriceInput: pricePerSqm,
		MarkupFactor:   1,
	}
	li.ComputedUnitPrice = pricing.ComputeUnitPrice(&li)
	li.Subtotal = pricing.ComputeSubtotal(&li)
	return li
}

func TestAggregate_Totals(t *testing.T) {
	// 1m² sheet at 100/m² -> unit price 100, qty 10 -> subtotal 1000
	items := []domain.LineItem{
		sheetItem(1000, 1000, 10, 100),
		// 0.5m² sheet at 200/m² -> unit price 100, qty 5 -> subtotal 500
		sheetItem(500, 1000, 5, 200),
	}

	totals := pricing.Aggregate(items)
	assert.Equal(t, 1500.0, totals.Subtotal)
	assert.Equal(t, 315.0, totals.TaxAmount)
	assert.Equal(t, 1815.0, totals.Total)
	// 10×1m² + 5×0.5m²
	assert.Equal(t, 12.5, totals.TotalAreaSqm)
}

func TestAggregate_PendingItemsExcludedFromMoneyOnly(t *testing.T) {
	pending := sheetItem(1000, 1000, 4, 100)
	pending.QuotePending = true
	pending.Subtotal = pricing.ComputeSubtotal(&pending)
	require.Equal(t, 0.0, pending.Subtotal)

	items := []domain.LineItem{
		sheetItem(1000, 1000, 10, 100),
		pending,
	}

	totals := pricing.Aggregate(items)
	assert.Equal(t, 1000.0, totals.Subtotal)
	assert.Equal(t, 210.0, totals.TaxAmount)
	assert.Equal(t, 1210.0, totals.Total)
	// Pending items still count toward area: 10 + 4 square meters.
	assert.Equal(t, 14.0, totals.TotalAreaSqm)
}

func TestAggregate_AllPending(t *testing.T) {
	a := sheetItem(1000, 1000, 3, 100)
	a.QuotePending = true
	a.Subtotal = 0
	b := sheetItem(2000, 1000, 2, 100)
	b.QuotePending = true
	b.Subtotal = 0

	totals := pricing.Aggregate([]domain.LineItem{a, b})
	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.TaxAmount)
	assert.Equal(t, 0.0, totals.Total)
	assert.Equal(t, 7.0, totals.TotalAreaSqm)
}

func TestAggregate_ManualPriceStylesContributeNoArea(t *testing.T) {
	polymer := domain.LineItem{
		BoxStyle:        domain.BoxStylePolymerPrint,
		LengthMm:        300,
		WidthMm:         200,
		Quantity:        2,
		ManualUnitPrice: 5000,
	}
	polymer.ComputedUnitPrice = pricing.ComputeUnitPrice(&polymer)
	polymer.Subtotal = pricing.ComputeSubtotal(&polymer)

	totals := pricing.Aggregate([]domain.LineItem{polymer})
	assert.Equal(t, 10000.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.TotalAreaSqm)
}

func TestAggregate_ManualAreaCountsTotalNotPerUnit(t *testing.T) {
	total := 30.0
	li := domain.LineItem{
		BoxStyle:      domain.BoxStyleManualArea,
		Quantity:      6,
		ManualAreaSqm: &total,
	}
	totals := pricing.Aggregate([]domain.LineItem{li})
	// unit area 30/6 = 5, times quantity 6 -> the manually entered total
	assert.Equal(t, 30.0, totals.TotalAreaSqm)
}

func TestAggregate_Empty(t *testing.T) {
	totals := pricing.Aggregate(nil)
	assert.Equal(t, domain.QuoteTotals{}, totals)
}

func TestRecompute_RefreshesDerivedFields(t *testing.T) {
	items := []domain.LineItem{
		{
			BoxStyle:       domain.BoxStyleSheet,
			LengthMm:       1000,
			WidthMm:        1000,
			Quantity:       10,
			UnitPriceInput: 100,
			MarkupFactor:   1,
			// Stale values a client might have sent
			ComputedUnitPrice: 999999,
			Subtotal:          999999,
		},
	}

	totals := pricing.Recompute(items)
	assert.Equal(t, 100.0, items[0].ComputedUnitPrice)
	assert.Equal(t, 1000.0, items[0].Subtotal)
	assert.Equal(t, 1000.0, totals.Subtotal)
}

func TestAreaFromInterchange(t *testing.T) {
	manual := 12.0
	items := []domain.InterchangeItem{
		{BoxStyle: domain.BoxStyleSheet, LengthMm: 1000, WidthMm: 1000, Quantity: 3},
		{BoxStyle: domain.BoxStylePolymerPrint, LengthMm: 500, WidthMm: 500, Quantity: 2},
		{BoxStyle: domain.BoxStyleManualArea, Quantity: 4, ManualAreaSqm: &manual},
		// legacy item stored without geometry
		{Description: "old entry", Quantity: 5, Subtotal: 100},
	}
	assert.Equal(t, 15.0, pricing.AreaFromInterchange(items))
}
