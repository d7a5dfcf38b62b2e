package pricing_test

import (
	"math"
	"testing"

	"github.com/marketpaper/quote-api/internal/domain"
	"github.com/marketpaper/quote-api/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProductionGeometry_Formulas(t *testing.T) {
	tests := []struct {
		name      string
		style     domain.BoxStyle
		l, w, h   float64
		wantProdL float64
		wantProdW float64
	}{
		{"simple flap box", domain.BoxStyleSimpleFlap, 300, 200, 150, 2*300 + 2*200 + 40, 200 + 150},
		{"tray", domain.BoxStyleTray, 400, 300, 100, 400 + 2*100 + 30, 300 + 2*100},
		{"frame", domain.BoxStyleFrame, 300, 200, 150, 2*(300-10) + 2*(200-10) + 40, 200 + 150},
		{"cross flap one side", domain.BoxStyleCrossFlapOneSide, 300, 200, 150, 2*300 + 2*200 + 40, 200 + 0.5*200 + 150 - 10},
		{"cross flap two sides", domain.BoxStyleCrossFlapTwoSide, 300, 200, 150, 2*300 + 2*200 + 40, 2*200 + 300 - 20},
		{"telescopic base", domain.BoxStyleTelescopicBase, 300, 200, 150, 2*300 + 2*200 + 50, 0.5*200 + 150},
		{"telescopic lid", domain.BoxStyleTelescopicLid, 300, 200, 150, 2*300 + 2*200 + 50, 0.5*200 + 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := pricing.ComputeProductionGeometry(tt.l, tt.w, tt.h, tt.style)
			assert.InDelta(t, tt.wantProdL, geo.ProductionLengthMm, 1e-9)
			assert.InDelta(t, tt.wantProdW, geo.ProductionWidthMm, 1e-9)
			assert.InDelta(t, tt.wantProdL*tt.wantProdW/1e6, geo.AreaSqm, 1e-9)
		})
	}
}

func TestComputeProductionGeometry_Passthrough(t *testing.T) {
	for _, style := range []domain.BoxStyle{domain.BoxStyleSheet, domain.BoxStylePolymerPrint, domain.BoxStyleDieCutTool} {
		t.Run(string(style), func(t *testing.T) {
			geo := pricing.ComputeProductionGeometry(1200, 800, 999, style)
			assert.Equal(t, 1200.0, geo.ProductionLengthMm)
			assert.Equal(t, 800.0, geo.ProductionWidthMm)
			assert.InDelta(t, 1200*800/1e6, geo.AreaSqm, 1e-9)
		})
	}
}

func TestComputeProductionGeometry_SanitizesInputs(t *testing.T) {
	t.Run("negative dimensions clamp to zero", func(t *testing.T) {
		geo := pricing.ComputeProductionGeometry(-100, -50, -20, domain.BoxStyleSimpleFlap)
		assert.GreaterOrEqual(t, geo.AreaSqm, 0.0)
		assert.False(t, math.IsNaN(geo.AreaSqm))
	})

	t.Run("NaN dimensions never propagate", func(t *testing.T) {
		geo := pricing.ComputeProductionGeometry(math.NaN(), 200, math.Inf(1), domain.BoxStyleTray)
		assert.False(t, math.IsNaN(geo.AreaSqm))
		assert.False(t, math.IsInf(geo.AreaSqm, 0))
	})

	t.Run("small frame never yields negative sheet", func(t *testing.T) {
		geo := pricing.ComputeProductionGeometry(5, 5, 0, domain.BoxStyleFrame)
		assert.GreaterOrEqual(t, geo.ProductionLengthMm, 0.0)
		assert.GreaterOrEqual(t, geo.AreaSqm, 0.0)
	})

	t.Run("zero dimensions yield zero area", func(t *testing.T) {
		geo := pricing.ComputeProductionGeometry(0, 0, 0, domain.BoxStyleSheet)
		assert.Equal(t, 0.0, geo.AreaSqm)
	})
}

func TestUnitArea(t *testing.T) {
	t.Run("dimensioned style uses production geometry", func(t *testing.T) {
		li := &domain.LineItem{BoxStyle: domain.BoxStyleSimpleFlap, LengthMm: 300, WidthMm: 200, HeightMm: 150, Quantity: 10}
		want := pricing.ComputeProductionGeometry(300, 200, 150, domain.BoxStyleSimpleFlap).AreaSqm
		assert.InDelta(t, want, pricing.UnitArea(li), 1e-9)
	})

	t.Run("manual area splits across quantity", func(t *testing.T) {
		total := 25.0
		li := &domain.LineItem{BoxStyle: domain.BoxStyleManualArea, Quantity: 10, ManualAreaSqm: &total}
		assert.InDelta(t, 2.5, pricing.UnitArea(li), 1e-9)
	})

	t.Run("manual area without value is zero", func(t *testing.T) {
		li := &domain.LineItem{BoxStyle: domain.BoxStyleManualArea, Quantity: 10}
		assert.Equal(t, 0.0, pricing.UnitArea(li))
	})

	t.Run("manual area with zero quantity is zero", func(t *testing.T) {
		total := 25.0
		li := &domain.LineItem{BoxStyle: domain.BoxStyleManualArea, Quantity: 0, ManualAreaSqm: &total}
		assert.Equal(t, 0.0, pricing.UnitArea(li))
	})

	t.Run("polymer print has no area", func(t *testing.T) {
		li := &domain.LineItem{BoxStyle: domain.BoxStylePolymerPrint, LengthMm: 300, WidthMm: 200, Quantity: 5}
		assert.Equal(t, 0.0, pricing.UnitArea(li))
	})

	t.Run("die cut tool has no area", func(t *testing.T) {
		li := &domain.LineItem{BoxStyle: domain.BoxStyleDieCutTool, LengthMm: 300, WidthMm: 200, Quantity: 5}
		assert.Equal(t, 0.0, pricing.UnitArea(li))
	})
}

func TestComputeUnitPrice(t *testing.T) {
	t.Run("dimensioned style prices by area with markup", func(t *testing.T) {
		li := &domain.LineItem{
			BoxStyle:       domain.BoxStyleSimpleFlap,
			LengthMm:       300, WidthMm: 200, HeightMm: 150,
			UnitPriceInput: 500,
			MarkupFactor:   1.3,
		}
		area := pricing.UnitArea(li)
		assert.InDelta(t, area*500*1.3, pricing.ComputeUnitPrice(li), 1e-9)
	})

	t.Run("zero markup zeroes the price", func(t *testing.T) {
		li := &domain.LineItem{
			BoxStyle:       domain.BoxStyleSheet,
			LengthMm:       1000, WidthMm: 1000,
			UnitPriceInput: 500,
		}
		assert.Equal(t, 0.0, pricing.ComputeUnitPrice(li))
	})

	t.Run("fractional markup discounts the price", func(t *testing.T) {
		li := &domain.LineItem{
			BoxStyle:       domain.BoxStyleSheet,
			LengthMm:       1000, WidthMm: 1000,
			UnitPriceInput: 500,
			MarkupFactor:   0.5,
		}
		assert.InDelta(t, 0.5*500, pricing.ComputeUnitPrice(li), 1e-9)
	})

	t.Run("polymer print uses raw manual price, no markup", func(t *testing.T) {
		li := &domain.LineItem{
			BoxStyle:        domain.BoxStylePolymerPrint,
			LengthMm:        300, WidthMm: 200,
			ManualUnitPrice: 15000,
			MarkupFactor:    2,
			UnitPriceInput:  999,
		}
		assert.Equal(t, 15000.0, pricing.ComputeUnitPrice(li))
	})

	t.Run("die cut tool uses raw manual price", func(t *testing.T) {
		li := &domain.LineItem{BoxStyle: domain.BoxStyleDieCutTool, ManualUnitPrice: 80000}
		assert.Equal(t, 80000.0, pricing.ComputeUnitPrice(li))
	})
}

func TestComputeSubtotal(t *testing.T) {
	t.Run("pending item is forced to zero", func(t *testing.T) {
		li := &domain.LineItem{
			BoxStyle:       domain.BoxStyleSimpleFlap,
			LengthMm:       300, WidthMm: 200, HeightMm: 150,
			Quantity:       100,
			UnitPriceInput: 500,
			MarkupFactor:   1.2,
			QuotePending:   true,
		}
		assert.Equal(t, 0.0, pricing.ComputeSubtotal(li))
	})

	t.Run("priced item rounds to two decimals", func(t *testing.T) {
		li := &domain.LineItem{
			BoxStyle:       domain.BoxStyleSheet,
			LengthMm:       333, WidthMm: 333,
			Quantity:       7,
			UnitPriceInput: 123.456,
			MarkupFactor:   1,
		}
		got := pricing.ComputeSubtotal(li)
		require.InDelta(t, got, math.Round(got*100)/100, 1e-12)
	})
}

func TestRound2(t *testing.T) {
	// 0.125 is exactly representable, so this is a true half case
	assert.Equal(t, 0.13, pricing.Round2(0.125))
	assert.Equal(t, -0.13, pricing.Round2(-0.125))
	assert.Equal(t, 1.23, pricing.Round2(1.2301))
	assert.Equal(t, 0.0, pricing.Round2(math.NaN()))
	assert.Equal(t, 0.0, pricing.Round2(math.Inf(1)))
}
