package domain

import (
	"time"

	"github.com/google/uuid"
)

// Envelope is the single response shape of the API: ok plus either a
// data payload or an error description.
type Envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error interface{} `json:"error,omitempty"`
}

// PaginatedResponse wraps list results with pagination metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// LineItemRequest is the write shape of a quote line item. Derived
// prices are not accepted here; the server recomputes them.
type LineItemRequest struct {
	Description     string   `json:"description" validate:"max=500"`
	BoxStyle        BoxStyle `json:"boxStyle" validate:"required"`
	LengthMm        float64  `json:"lengthMm" validate:"gte=0"`
	WidthMm         float64  `json:"widthMm" validate:"gte=0"`
	HeightMm        float64  `json:"heightMm" validate:"gte=0"`
	QualityLabel    string   `json:"qualityLabel" validate:"max=100"`
	ColorLabel      string   `json:"colorLabel" validate:"max=100"`
	Quantity        int      `json:"quantity" validate:"gte=0"`
	UnitPriceInput  float64  `json:"unitPriceInputPerSqm" validate:"gte=0"`
	ManualUnitPrice float64  `json:"manualUnitPrice" validate:"gte=0"`
	MarkupFactor    *float64 `json:"markupFactor" validate:"omitempty,gte=0"`
	ColorCount      int      `json:"colorCount" validate:"gte=0"`
	QuotePending    bool     `json:"quotePending"`
	ManualAreaSqm   *float64 `json:"manualAreaSqm" validate:"omitempty,gte=0"`
}

// CreateQuoteRequest creates or replaces a full quote
type CreateQuoteRequest struct {
	DealID            string            `json:"dealId" validate:"max=50"`
	ClientName        string            `json:"clientName" validate:"required,max=200"`
	ClientCompany     string            `json:"clientCompany" validate:"max=200"`
	ClientEmail       string            `json:"clientEmail" validate:"omitempty,email,max=255"`
	ClientPhone       string            `json:"clientPhone" validate:"max=50"`
	ClientAddress     string            `json:"clientAddress" validate:"max=500"`
	PaymentKind       PaymentKind       `json:"paymentKind" validate:"omitempty"`
	DeliveryKind      DeliveryKind      `json:"deliveryKind" validate:"omitempty"`
	PaymentTermsText  string            `json:"paymentTermsText" validate:"max=1000"`
	DeliveryTermsText string            `json:"deliveryTermsText" validate:"max=1000"`
	ValidityText      string            `json:"validityText" validate:"max=1000"`
	FixedConditions   []string          `json:"fixedConditions" validate:"max=20,dive,max=500"`
	PdfURL            string            `json:"pdfUrl" validate:"omitempty,url,max=1000"`
	Items             []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateQuoteRequest fully replaces a quote, items included
type UpdateQuoteRequest = CreateQuoteRequest

// QuoteFilter narrows the quote listing
type QuoteFilter struct {
	DealID   string
	Page     int
	PageSize int
}

// PublishQuoteRequest publishes a stored quote to a CRM deal. With no
// explicit quote ID the quote already bound to the deal is republished.
type PublishQuoteRequest struct {
	QuoteID             uuid.UUID `json:"quoteId"`
	MoveStageIfComplete bool      `json:"moveStageIfComplete"`
	PdfURL              string    `json:"pdfUrl" validate:"omitempty,url,max=1000"`
}

// SyncReport summarizes one line-item synchronization run. A
// deliberately skipped run sets Skipped; a run that was attempted but
// aborted carries the failure in Error instead.
type SyncReport struct {
	Deleted int    `json:"deleted"`
	Created int    `json:"created"`
	Failed  int    `json:"failed"`
	Skipped bool   `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

// PublishResult reports the outcome of a publish operation
type PublishResult struct {
	DealID        string      `json:"dealId"`
	StageAdvanced bool        `json:"stageAdvanced"`
	HasPending    bool        `json:"hasPending"`
	Totals        QuoteTotals `json:"totals"`
	Sync          *SyncReport `json:"sync,omitempty"`
}

// DealSummary is one row of the enriched open-deal listing
type DealSummary struct {
	ID           string            `json:"id"`
	Properties   map[string]string `json:"properties"`
	ContactCount int               `json:"contactCount"`
	CompanyCount int               `json:"companyCount"`
	MissingChat  *ContactSummary   `json:"missingChatContact,omitempty"`
}

// DuplicateDealResult reports the deal created by a duplication
type DuplicateDealResult struct {
	NewDealID string `json:"newDealId"`
	Name      string `json:"name"`
}

// ChatLinkResult is the resolved external chat link of a deal's contact
type ChatLinkResult struct {
	ContactID string `json:"contactId"`
	Link      string `json:"link"`
	PageID    string `json:"pageId,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// UpdateContactRequest patches a contact's chat link and identity fields
type UpdateContactRequest struct {
	ChatLink  string `json:"chatLink" validate:"omitempty,url,max=1000"`
	FirstName string `json:"firstName" validate:"max=200"`
	LastName  string `json:"lastName" validate:"max=200"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"max=50"`
}

// NewContactRequest carries the attributes of a contact to create
type NewContactRequest struct {
	FirstName string `json:"firstName" validate:"max=200"`
	LastName  string `json:"lastName" validate:"max=200"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"max=50"`
}

// NewCompanyRequest carries the attributes of a company to create
type NewCompanyRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Province string `json:"province" validate:"max=200"`
	City     string `json:"city" validate:"max=200"`
	Address  string `json:"address" validate:"max=500"`
}

// RepairAssociationsRequest links a contact and a company to a deal,
// by ID for existing records or by attributes for records created on
// the spot. At least one target must be present.
type RepairAssociationsRequest struct {
	ContactID  string             `json:"contactId" validate:"max=50"`
	CompanyID  string             `json:"companyId" validate:"max=50"`
	NewContact *NewContactRequest `json:"newContact" validate:"omitempty"`
	NewCompany *NewCompanyRequest `json:"newCompany" validate:"omitempty"`
}

// SendQuoteRequest triggers the outbound quote notification webhook
type SendQuoteRequest struct {
	Phone  string `json:"phone" validate:"required,max=50"`
	PdfURL string `json:"pdfUrl" validate:"required,url,max=1000"`
}

// RecalculateAreasResult reports the maintenance recalculation outcome
type RecalculateAreasResult struct {
	Scanned int      `json:"scanned"`
	Updated int      `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// LineItemDTO is the read shape of a line item, derived fields included
type LineItemDTO struct {
	ID                uuid.UUID `json:"id"`
	Description       string    `json:"description"`
	BoxStyle          BoxStyle  `json:"boxStyle"`
	LengthMm          float64   `json:"lengthMm"`
	WidthMm           float64   `json:"widthMm"`
	HeightMm          float64   `json:"heightMm"`
	QualityLabel      string    `json:"qualityLabel,omitempty"`
	ColorLabel        string    `json:"colorLabel,omitempty"`
	Quantity          int       `json:"quantity"`
	UnitPriceInput    float64   `json:"unitPriceInputPerSqm"`
	ManualUnitPrice   float64   `json:"manualUnitPrice"`
	MarkupFactor      float64   `json:"markupFactor"`
	ColorCount        int       `json:"colorCount"`
	QuotePending      bool      `json:"quotePending"`
	ManualAreaSqm     *float64  `json:"manualAreaSqm,omitempty"`
	ComputedUnitPrice float64   `json:"computedUnitPrice"`
	Subtotal          float64   `json:"subtotal"`
	UnitAreaSqm       float64   `json:"unitAreaSqm"`
}

// QuoteDTO is the read shape of a quote
type QuoteDTO struct {
	ID                uuid.UUID     `json:"id"`
	DealID            string        `json:"dealId,omitempty"`
	ClientName        string        `json:"clientName"`
	ClientCompany     string        `json:"clientCompany,omitempty"`
	ClientEmail       string        `json:"clientEmail,omitempty"`
	ClientPhone       string        `json:"clientPhone,omitempty"`
	ClientAddress     string        `json:"clientAddress,omitempty"`
	PaymentKind       PaymentKind   `json:"paymentKind,omitempty"`
	DeliveryKind      DeliveryKind  `json:"deliveryKind,omitempty"`
	PaymentTermsText  string        `json:"paymentTermsText,omitempty"`
	DeliveryTermsText string        `json:"deliveryTermsText,omitempty"`
	ValidityText      string        `json:"validityText,omitempty"`
	FixedConditions   []string      `json:"fixedConditions,omitempty"`
	PdfURL            string        `json:"pdfUrl,omitempty"`
	Totals            QuoteTotals   `json:"totals"`
	HasPending        bool          `json:"hasPending"`
	Items             []LineItemDTO `json:"items"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}
