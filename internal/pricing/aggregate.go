package pricing

import "github.com/marketpaper/quote-api/internal/domain"

// Aggregate computes the monetary and area totals of a set of line
// items. Pending items are excluded from the money columns but still
// count toward the area total. Each output field is rounded once, at
// the end.
func Aggregate(items []domain.LineItem) domain.QuoteTotals {
	var subtotal, area float64
	for i := range items {
		li := &items[i]
		if !li.QuotePending {
			subtotal += li.Subtotal
		}
		area += UnitArea(li) * float64(li.Quantity)
	}

	subtotal = Round2(subtotal)
	tax := Round2(subtotal * TaxRate)
	return domain.QuoteTotals{
		Subtotal:     subtotal,
		TaxAmount:    tax,
		Total:        Round2(subtotal + tax),
		TotalAreaSqm: Round2(area),
	}
}

// Recompute refreshes the derived fields of every line item in place
// and returns the resulting totals.
func Recompute(items []domain.LineItem) domain.QuoteTotals {
	for i := range items {
		items[i].ComputedUnitPrice = ComputeUnitPrice(&items[i])
		items[i].Subtotal = ComputeSubtotal(&items[i])
	}
	return Aggregate(items)
}

// AreaFromInterchange recomputes the total square meters from stored
// interchange items, used by the maintenance recalculation.
func AreaFromInterchange(items []domain.InterchangeItem) float64 {
	var area float64
	for _, it := range items {
		li := domain.LineItem{
			BoxStyle:      it.BoxStyle,
			LengthMm:      it.LengthMm,
			WidthMm:       it.WidthMm,
			HeightMm:      it.HeightMm,
			Quantity:      it.Quantity,
			ManualAreaSqm: it.ManualAreaSqm,
		}
		if li.BoxStyle == "" {
			// Items stored before geometry fields were added cannot
			// contribute area.
			continue
		}
		area += UnitArea(&li) * float64(it.Quantity)
	}
	return Round2(area)
}
