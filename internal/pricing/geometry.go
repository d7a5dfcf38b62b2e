// Package pricing implements the production-sheet geometry formulas and
// the quote total aggregation. It is pure computation with no I/O.
package pricing

import (
	"math"

	"github.com/marketpaper/quote-api/internal/domain"
)

// TaxRate is the VAT rate applied to quote subtotals
const TaxRate = 0.21

// ProductionGeometry holds the flattened production-sheet measures of a
// single unit. Dimensions are millimeters, area is square meters.
type ProductionGeometry struct {
	ProductionLengthMm float64
	ProductionWidthMm  float64
	AreaSqm            float64
}

// ComputeProductionGeometry maps a box style and its product dimensions
// (mm) to the production sheet needed to build one unit. Negative or
// non-finite inputs are clamped to zero so the result is never negative
// or NaN.
func ComputeProductionGeometry(lengthMm, widthMm, heightMm float64, style domain.BoxStyle) ProductionGeometry {
	l := sanitize(lengthMm)
	w := sanitize(widthMm)
	h := sanitize(heightMm)

	var prodL, prodW float64
	switch style {
	case domain.BoxStyleSheet, domain.BoxStylePolymerPrint, domain.BoxStyleDieCutTool, domain.BoxStyleManualArea:
		// No sheet transformation: dimensions pass through unchanged.
		prodL, prodW = l, w
	case domain.BoxStyleTray:
		prodL = l + 2*h + 30
		prodW = w + 2*h
	case domain.BoxStyleFrame:
		prodL = 2*(l-10) + 2*(w-10) + 40
		prodW = w + h
	case domain.BoxStyleCrossFlapOneSide:
		prodL = 2*l + 2*w + 40
		prodW = w + 0.5*w + h - 10
	case domain.BoxStyleCrossFlapTwoSide:
		prodL = 2*l + 2*w + 40
		prodW = 2*w + l - 20
	case domain.BoxStyleTelescopicBase, domain.BoxStyleTelescopicLid:
		prodL = 2*l + 2*w + 50
		prodW = 0.5*w + h
	default:
		// simple-flap-box, also the fallback for unknown styles
		prodL = 2*l + 2*w + 40
		prodW = w + h
	}

	prodL = sanitize(prodL)
	prodW = sanitize(prodW)
	return ProductionGeometry{
		ProductionLengthMm: prodL,
		ProductionWidthMm:  prodW,
		AreaSqm:            prodL * prodW / 1e6,
	}
}

// UnitArea returns the production surface of one unit of the item in
// square meters. Manual-area items spread their total area across the
// quantity; polymer prints and die-cut tools have none.
func UnitArea(li *domain.LineItem) float64 {
	if !li.BoxStyle.CountsTowardArea() {
		return 0
	}
	if li.BoxStyle == domain.BoxStyleManualArea {
		if li.ManualAreaSqm == nil || li.Quantity <= 0 {
			return 0
		}
		return sanitize(*li.ManualAreaSqm) / float64(li.Quantity)
	}
	return ComputeProductionGeometry(li.LengthMm, li.WidthMm, li.HeightMm, li.BoxStyle).AreaSqm
}

// ComputeUnitPrice derives the unit price of a line item. Dimensioned
// styles price by production area; polymer prints and die-cut tools use
// the manually entered price with no markup.
func ComputeUnitPrice(li *domain.LineItem) float64 {
	if li.BoxStyle.ManualPrice() {
		return sanitize(li.ManualUnitPrice)
	}
	return UnitArea(li) * sanitize(li.UnitPriceInput) * sanitize(li.MarkupFactor)
}

// ComputeSubtotal returns the rounded line subtotal, forced to zero for
// items whose price is still pending.
func ComputeSubtotal(li *domain.LineItem) float64 {
	if li.QuotePending {
		return 0
	}
	return Round2(float64(li.Quantity) * ComputeUnitPrice(li))
}

// Round2 rounds half away from zero to two decimal places
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
