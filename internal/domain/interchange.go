package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// InterchangeItem is the serialized form of a line item stored on the
// remote deal. The first five fields are the canonical interchange
// contract and must round-trip losslessly; the geometry fields are
// carried so area totals can be recomputed from stored data alone.
type InterchangeItem struct {
	Description  string  `json:"description"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	Subtotal     float64 `json:"subtotal"`
	QuotePending bool    `json:"quotePending"`

	BoxStyle      BoxStyle `json:"boxStyle,omitempty"`
	LengthMm      float64  `json:"lengthMm,omitempty"`
	WidthMm       float64  `json:"widthMm,omitempty"`
	HeightMm      float64  `json:"heightMm,omitempty"`
	ManualAreaSqm *float64 `json:"manualAreaSqm,omitempty"`
}

// ToInterchange converts line items into their serialized form
func ToInterchange(items []LineItem) []InterchangeItem {
	out := make([]InterchangeItem, 0, len(items))
	for i := range items {
		li := &items[i]
		out = append(out, InterchangeItem{
			Description:   li.Description,
			Quantity:      li.Quantity,
			UnitPrice:     li.ComputedUnitPrice,
			Subtotal:      li.Subtotal,
			QuotePending:  li.QuotePending,
			BoxStyle:      li.BoxStyle,
			LengthMm:      li.LengthMm,
			WidthMm:       li.WidthMm,
			HeightMm:      li.HeightMm,
			ManualAreaSqm: li.ManualAreaSqm,
		})
	}
	return out
}

// EncodeItems serializes line items to the JSON stored on the deal
func EncodeItems(items []LineItem) (string, error) {
	b, err := json.Marshal(ToInterchange(items))
	if err != nil {
		return "", fmt.Errorf("encoding line items: %w", err)
	}
	return string(b), nil
}

// DecodeItems parses stored line-item JSON. An empty string decodes to
// an empty slice.
func DecodeItems(raw string) ([]InterchangeItem, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var items []InterchangeItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decoding line items: %w", err)
	}
	return items, nil
}

// ItemDisplayName returns the item description, or a generated
// "{style} - LxWxH" label when the description is blank.
func ItemDisplayName(li *LineItem) string {
	if li.Description != "" {
		return li.Description
	}
	return string(li.BoxStyle) + " - " +
		formatMm(li.LengthMm) + "x" + formatMm(li.WidthMm) + "x" + formatMm(li.HeightMm)
}

func formatMm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
