package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marketpaper/quote-api/internal/chat"
	"github.com/marketpaper/quote-api/internal/config"
	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/domain"
	"go.uber.org/zap"
)

// dealCopyProperties is the whitelist copied when duplicating a deal
var dealCopyProperties = []string{
	crm.PropDealName, crm.PropPipeline, crm.PropDealStage, crm.PropAmount,
	crm.PropPdfURL, crm.PropItemsJSON,
	crm.PropTotalSubtotal, crm.PropTotalTax, crm.PropTotalFinal, crm.PropTotalAreaSqm,
	crm.PropClientName, crm.PropClientCompany, crm.PropClientEmail, crm.PropClientPhone,
	crm.PropPaymentTerms, crm.PropDeliveryTerms, crm.PropValidityTerms,
	crm.PropHasPendingItems,
}

// DealService covers the deal-centric operations around a quote's
// lifecycle: the enriched open-deal listing, duplication, chat-link
// resolution and outbound quote notifications.
type DealService struct {
	store        CRMStore
	associations *AssociationService
	notifier     *chat.Notifier
	cfg          config.CRMConfig
	logger       *zap.Logger
}

func NewDealService(store CRMStore, associations *AssociationService, notifier *chat.Notifier, cfg config.CRMConfig, logger *zap.Logger) *DealService {
	return &DealService{
		store:        store,
		associations: associations,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
	}
}

// ListOpenDeals returns the deals waiting for a quote in the configured
// pipeline, enriched with association metadata and autofilled client
// properties. Enrichment failures degrade to the bare deal rows.
func (s *DealService) ListOpenDeals(ctx context.Context) ([]domain.DealSummary, error) {
	page, err := s.store.SearchObjects(ctx, crm.ObjectTypeDeal, crm.SearchRequest{
		Filters: []crm.SearchFilter{
			{PropertyName: crm.PropPipeline, Operator: "EQ", Value: s.cfg.Pipeline},
			{PropertyName: crm.PropDealStage, Operator: "EQ", Value: s.cfg.InitialStage},
		},
		Properties: crm.DealListProperties,
		Limit:      100,
	})
	if err != nil {
		return nil, fmt.Errorf("searching open deals: %w", err)
	}

	summaries := make([]domain.DealSummary, 0, len(page.Results))
	for _, deal := range page.Results {
		summary := domain.DealSummary{ID: deal.ID, Properties: deal.Properties}
		if summary.Properties == nil {
			summary.Properties = map[string]string{}
		}
		s.enrichDeal(ctx, &summary)
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *DealService) enrichDeal(ctx context.Context, summary *domain.DealSummary) {
	snapshot, err := s.associations.Resolve(ctx, summary.ID)
	if err != nil {
		s.logger.Warn("deal enrichment failed",
			zap.String("deal_id", summary.ID), zap.Error(err))
		return
	}

	summary.ContactCount = len(snapshot.ContactIDs)
	summary.CompanyCount = len(snapshot.UniqueCompanyIDs)
	summary.MissingChat = snapshot.MissingChatContact

	s.autofillClientProperties(summary, snapshot)
}

// autofillClientProperties fills blank client fields from the first
// associated contact, and the company field from the first named
// company (deal associations take precedence over contact ones).
func (s *DealService) autofillClientProperties(summary *domain.DealSummary, snapshot *domain.AssociationSnapshot) {
	if len(snapshot.Contacts) > 0 {
		contact := snapshot.Contacts[0].Properties
		if summary.Properties[crm.PropClientName] == "" {
			name := strings.TrimSpace(contact[crm.PropFirstName] + " " + contact[crm.PropLastName])
			if name != "" {
				summary.Properties[crm.PropClientName] = name
			}
		}
		if summary.Properties[crm.PropClientEmail] == "" && contact[crm.PropEmail] != "" {
			summary.Properties[crm.PropClientEmail] = contact[crm.PropEmail]
		}
		if summary.Properties[crm.PropClientPhone] == "" && contact[crm.PropPhone] != "" {
			summary.Properties[crm.PropClientPhone] = contact[crm.PropPhone]
		}
	}

	if summary.Properties[crm.PropClientCompany] == "" && len(snapshot.Companies) > 0 {
		summary.Properties[crm.PropClientCompany] = snapshot.Companies[0].Properties[crm.PropCompanyName]
	}
}

// Duplicate copies a whitelisted property set into a new deal named
// "<original> (copy)", reset to the configured initial stage.
func (s *DealService) Duplicate(ctx context.Context, dealID string) (*domain.DuplicateDealResult, error) {
	original, err := s.store.GetObject(ctx, crm.ObjectTypeDeal, dealID, dealCopyProperties)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("fetching deal %s: %w", dealID, err)
	}

	props := make(map[string]string, len(original.Properties))
	for _, key := range dealCopyProperties {
		if v, ok := original.Properties[key]; ok && v != "" && key != crm.PropDealName {
			props[key] = v
		}
	}

	name := original.Properties[crm.PropDealName]
	if name == "" {
		name = "Deal"
	}
	props[crm.PropDealName] = name + " (copy)"
	if s.cfg.InitialStage != "" {
		props[crm.PropDealStage] = s.cfg.InitialStage
	}

	created, err := s.store.CreateObject(ctx, crm.ObjectTypeDeal, props, nil)
	if err != nil {
		return nil, fmt.Errorf("creating duplicate deal: %w", err)
	}

	s.logger.Info("deal duplicated",
		zap.String("source_deal_id", dealID),
		zap.String("new_deal_id", created.ID))

	return &domain.DuplicateDealResult{NewDealID: created.ID, Name: props[crm.PropDealName]}, nil
}

// ChatLink finds the first associated contact carrying a non-empty chat
// link and returns the link with its parsed identifiers.
func (s *DealService) ChatLink(ctx context.Context, dealID string) (*domain.ChatLinkResult, error) {
	snapshot, err := s.associations.Resolve(ctx, dealID)
	if err != nil {
		return nil, err
	}

	for _, contact := range snapshot.Contacts {
		link := strings.TrimSpace(contact.Properties[crm.PropChatLink])
		if link == "" {
			continue
		}
		result := &domain.ChatLinkResult{ContactID: contact.ID, Link: link}
		if ids, ok := chat.ParseLink(link); ok {
			result.PageID = ids.PageID
			result.UserID = ids.UserID
		}
		return result, nil
	}
	return nil, ErrChatLinkNotFound
}

// SendQuote delivers the quote PDF link to the client over the chat
// webhook.
func (s *DealService) SendQuote(ctx context.Context, dealID string, req *domain.SendQuoteRequest) error {
	phone, ok := chat.NormalizePhone(req.Phone)
	if !ok {
		return ErrInvalidPhone
	}

	err := s.notifier.SendQuote(ctx, phone, req.PdfURL, dealID)
	if errors.Is(err, chat.ErrNotConfigured) {
		return ErrWebhookDisabled
	}
	return err
}
