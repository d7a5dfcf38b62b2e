package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database does not (sqlite in tests)
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BoxStyle identifies the corrugated-box construction of a line item.
// The style decides which production-sheet formula applies and whether
// the item's price is derived from surface area at all.
type BoxStyle string

const (
	BoxStyleSimpleFlap       BoxStyle = "simple-flap-box"
	BoxStyleSheet            BoxStyle = "sheet"
	BoxStyleTray             BoxStyle = "tray"
	BoxStyleFrame            BoxStyle = "frame"
	BoxStyleCrossFlapOneSide BoxStyle = "cross-flap-box-1side"
	BoxStyleCrossFlapTwoSide BoxStyle = "cross-flap-box-2side"
	BoxStyleTelescopicBase   BoxStyle = "telescopic-base"
	BoxStyleTelescopicLid    BoxStyle = "telescopic-lid"
	BoxStylePolymerPrint     BoxStyle = "polymer-print"
	BoxStyleDieCutTool       BoxStyle = "die-cut-tool"
	BoxStyleManualArea       BoxStyle = "other-manual-area"
)

// IsValid checks if the BoxStyle is a valid enum value
func (s BoxStyle) IsValid() bool {
	switch s {
	case BoxStyleSimpleFlap, BoxStyleSheet, BoxStyleTray, BoxStyleFrame,
		BoxStyleCrossFlapOneSide, BoxStyleCrossFlapTwoSide,
		BoxStyleTelescopicBase, BoxStyleTelescopicLid,
		BoxStylePolymerPrint, BoxStyleDieCutTool, BoxStyleManualArea:
		return true
	}
	return false
}

// ManualPrice reports whether the style's unit price is entered directly
// instead of being derived from production surface area.
func (s BoxStyle) ManualPrice() bool {
	return s == BoxStylePolymerPrint || s == BoxStyleDieCutTool
}

// CountsTowardArea reports whether the style contributes to the quote's
// total square meters. Polymer prints and die-cut tools have no physical
// sheet of their own.
func (s BoxStyle) CountsTowardArea() bool {
	return s != BoxStylePolymerPrint && s != BoxStyleDieCutTool
}

// PaymentKind is a predefined payment-terms option
type PaymentKind string

const (
	PaymentEcheq15    PaymentKind = "echeq_15"
	PaymentEcheq30    PaymentKind = "echeq_30"
	PaymentEcheq45    PaymentKind = "echeq_45"
	PaymentAdvance50  PaymentKind = "anticipo_50"
	PaymentAccount7   PaymentKind = "cta_cte_7"
	PaymentAccount30  PaymentKind = "cta_cte_30"
	PaymentAccount60  PaymentKind = "cta_cte_60"
	PaymentCustomText PaymentKind = "texto_libre"
)

// IsValid checks if the PaymentKind is a valid enum value
func (k PaymentKind) IsValid() bool {
	switch k {
	case PaymentEcheq15, PaymentEcheq30, PaymentEcheq45, PaymentAdvance50,
		PaymentAccount7, PaymentAccount30, PaymentAccount60, PaymentCustomText:
		return true
	}
	return false
}

// DeliveryKind is a predefined delivery-terms option
type DeliveryKind string

const (
	DeliveryProduction15 DeliveryKind = "produccion_15"
	DeliveryStock48h     DeliveryKind = "stock_48_72"
	DeliveryCustomText   DeliveryKind = "texto_libre"
)

// IsValid checks if the DeliveryKind is a valid enum value
func (k DeliveryKind) IsValid() bool {
	switch k {
	case DeliveryProduction15, DeliveryStock48h, DeliveryCustomText:
		return true
	}
	return false
}

// Quote is a locally stored budget proposal, optionally bound to a
// remote CRM deal once published.
type Quote struct {
	BaseModel
	DealID            string         `gorm:"type:varchar(50);index;column:deal_id"`
	ClientName        string         `gorm:"type:varchar(200);not null;column:client_name"`
	ClientCompany     string         `gorm:"type:varchar(200);column:client_company"`
	ClientEmail       string         `gorm:"type:varchar(255);column:client_email"`
	ClientPhone       string         `gorm:"type:varchar(50);column:client_phone"`
	ClientAddress     string         `gorm:"type:varchar(500);column:client_address"`
	PaymentKind       PaymentKind    `gorm:"type:varchar(50);column:payment_kind"`
	DeliveryKind      DeliveryKind   `gorm:"type:varchar(50);column:delivery_kind"`
	PaymentTermsText  string         `gorm:"type:text;column:payment_terms_text"`
	DeliveryTermsText string         `gorm:"type:text;column:delivery_terms_text"`
	ValidityText      string         `gorm:"type:text;column:validity_text"`
	FixedConditions   pq.StringArray `gorm:"type:text[];column:fixed_conditions"`
	PdfURL            string         `gorm:"type:varchar(1000);column:pdf_url"`
	Subtotal          float64        `gorm:"type:decimal(15,2);not null;default:0"`
	TaxAmount         float64        `gorm:"type:decimal(15,2);not null;default:0;column:tax_amount"`
	Total             float64        `gorm:"type:decimal(15,2);not null;default:0"`
	TotalAreaSqm      float64        `gorm:"type:decimal(15,2);not null;default:0;column:total_area_sqm"`
	Items             []LineItem     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
}

// HasPendingItems reports whether any line item still awaits a price
func (q *Quote) HasPendingItems() bool {
	for i := range q.Items {
		if q.Items[i].QuotePending {
			return true
		}
	}
	return false
}

// LineItem is a single priced position of a quote.
//
// ComputedUnitPrice and Subtotal are derived caches: the quote service
// recomputes them from the pricing inputs on every write, they are never
// accepted from a client. Subtotal is forced to zero while QuotePending
// is set.
type LineItem struct {
	BaseModel
	QuoteID           uuid.UUID `gorm:"type:uuid;not null;index;column:quote_id"`
	Description       string    `gorm:"type:text"`
	BoxStyle          BoxStyle  `gorm:"type:varchar(50);not null;column:box_style"`
	LengthMm          float64   `gorm:"type:decimal(10,2);not null;default:0;column:length_mm"`
	WidthMm           float64   `gorm:"type:decimal(10,2);not null;default:0;column:width_mm"`
	HeightMm          float64   `gorm:"type:decimal(10,2);not null;default:0;column:height_mm"`
	QualityLabel      string    `gorm:"type:varchar(100);column:quality_label"`
	ColorLabel        string    `gorm:"type:varchar(100);column:color_label"`
	Quantity          int       `gorm:"not null;default:0"`
	UnitPriceInput    float64   `gorm:"type:decimal(15,4);not null;default:0;column:unit_price_input"`
	ManualUnitPrice   float64   `gorm:"type:decimal(15,4);not null;default:0;column:manual_unit_price"`
	MarkupFactor      float64   `gorm:"type:decimal(8,4);not null;default:1;column:markup_factor"`
	ColorCount        int       `gorm:"not null;default:1;column:color_count"`
	QuotePending      bool      `gorm:"not null;default:false;column:quote_pending"`
	ManualAreaSqm     *float64  `gorm:"type:decimal(12,4);column:manual_area_sqm"`
	ComputedUnitPrice float64   `gorm:"type:decimal(15,4);not null;default:0;column:computed_unit_price"`
	Subtotal          float64   `gorm:"type:decimal(15,2);not null;default:0"`
	Position          int       `gorm:"not null;default:0"`
}

// QuoteTotals holds the aggregated monetary and area totals of a quote
type QuoteTotals struct {
	Subtotal     float64 `json:"subtotal"`
	TaxAmount    float64 `json:"taxAmount"`
	Total        float64 `json:"total"`
	TotalAreaSqm float64 `json:"totalAreaSqm"`
}

// ContactSummary is a remote contact reference with the attribute subset
// this system reads
type ContactSummary struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// CompanySummary is a remote company reference
type CompanySummary struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// AssociationSnapshot is the ephemeral result of resolving a deal's
// contact and company associations in the remote CRM. It is always
// fetched fresh and never persisted.
type AssociationSnapshot struct {
	DealID                 string           `json:"dealId"`
	ContactIDs             []string         `json:"contactIds"`
	Contacts               []ContactSummary `json:"contacts"`
	Companies              []CompanySummary `json:"companies"`
	CompanyIDsFromDeal     []string         `json:"companyIdsFromDeal"`
	CompanyIDsFromContacts []string         `json:"companyIdsFromContacts"`
	UniqueCompanyIDs       []string         `json:"uniqueCompanyIds"`
	MissingChatContact     *ContactSummary  `json:"missingChatContact,omitempty"`
}
