package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/domain"
	"go.uber.org/zap"
)

// AssociationService resolves a deal's contact and company graph in the
// remote CRM. Snapshots are always fetched fresh; nothing here is
// cached or persisted.
type AssociationService struct {
	store  CRMStore
	logger *zap.Logger
}

func NewAssociationService(store CRMStore, logger *zap.Logger) *AssociationService {
	return &AssociationService{store: store, logger: logger}
}

// Resolve builds the association snapshot for one deal. Enrichment
// failures (attribute batch reads) degrade to partial data; only a
// missing deal surfaces as an error.
func (s *AssociationService) Resolve(ctx context.Context, dealID string) (*domain.AssociationSnapshot, error) {
	if _, err := s.store.GetObject(ctx, crm.ObjectTypeDeal, dealID, []string{crm.PropDealName}); err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("fetching deal %s: %w", dealID, err)
	}

	snapshot := &domain.AssociationSnapshot{DealID: dealID}

	contactIDs, err := s.store.ListAssociations(ctx, crm.ObjectTypeDeal, dealID, crm.ObjectTypeContact)
	if err != nil {
		// A deal with no resolvable contact listing is an empty
		// snapshot, not a failure.
		s.logger.Warn("listing deal contacts failed",
			zap.String("deal_id", dealID), zap.Error(err))
		return snapshot, nil
	}
	snapshot.ContactIDs = contactIDs

	companiesFromDeal, err := s.store.ListAssociations(ctx, crm.ObjectTypeDeal, dealID, crm.ObjectTypeCompany)
	if err != nil {
		s.logger.Warn("listing deal companies failed",
			zap.String("deal_id", dealID), zap.Error(err))
	}
	snapshot.CompanyIDsFromDeal = companiesFromDeal

	var companiesFromContacts []string
	if len(contactIDs) > 0 {
		byContact, err := s.store.BatchReadAssociations(ctx, crm.ObjectTypeContact, crm.ObjectTypeCompany, contactIDs)
		if err != nil {
			s.logger.Warn("listing contact companies failed",
				zap.String("deal_id", dealID), zap.Error(err))
		} else {
			for _, id := range contactIDs {
				companiesFromContacts = append(companiesFromContacts, byContact[id]...)
			}
		}
	}
	snapshot.CompanyIDsFromContacts = dedupe(companiesFromContacts)

	snapshot.Companies = s.readNamedCompanies(ctx, dealID, dedupe(append(append([]string{}, companiesFromDeal...), companiesFromContacts...)))
	snapshot.UniqueCompanyIDs = UniqueCompanyIDs(snapshot)
	s.enrichContacts(ctx, dealID, snapshot)

	return snapshot, nil
}

// Repair links a contact and a company to the deal, creating them
// first when the request carries attributes instead of an ID. Unlike
// Resolve, failures here surface: the caller asked for a write and
// needs to know it did not land.
func (s *AssociationService) Repair(ctx context.Context, dealID string, req *domain.RepairAssociationsRequest) (*domain.AssociationSnapshot, error) {
	if req.ContactID == "" && req.CompanyID == "" && req.NewContact == nil && req.NewCompany == nil {
		return nil, ErrNoRepairTarget
	}
	if _, err := s.store.GetObject(ctx, crm.ObjectTypeDeal, dealID, []string{crm.PropDealName}); err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("fetching deal %s: %w", dealID, err)
	}

	contactID := req.ContactID
	if req.NewContact != nil {
		obj, err := s.store.CreateObject(ctx, crm.ObjectTypeContact, contactProperties(req.NewContact), nil)
		if err != nil {
			return nil, fmt.Errorf("creating contact: %w", err)
		}
		contactID = obj.ID
	}
	if contactID != "" {
		if err := s.store.CreateAssociation(ctx, crm.ObjectTypeDeal, dealID, crm.ObjectTypeContact, contactID); err != nil {
			return nil, fmt.Errorf("associating contact %s: %w", contactID, err)
		}
	}

	companyID := req.CompanyID
	if req.NewCompany != nil {
		obj, err := s.store.CreateObject(ctx, crm.ObjectTypeCompany, companyProperties(req.NewCompany), nil)
		if err != nil {
			return nil, fmt.Errorf("creating company: %w", err)
		}
		companyID = obj.ID
	}
	if companyID != "" {
		if err := s.store.CreateAssociation(ctx, crm.ObjectTypeDeal, dealID, crm.ObjectTypeCompany, companyID); err != nil {
			return nil, fmt.Errorf("associating company %s: %w", companyID, err)
		}
	}

	return s.Resolve(ctx, dealID)
}

func contactProperties(req *domain.NewContactRequest) map[string]string {
	props := make(map[string]string)
	setIfPresent(props, crm.PropFirstName, req.FirstName)
	setIfPresent(props, crm.PropLastName, req.LastName)
	setIfPresent(props, crm.PropEmail, req.Email)
	setIfPresent(props, crm.PropPhone, req.Phone)
	return props
}

func companyProperties(req *domain.NewCompanyRequest) map[string]string {
	props := map[string]string{crm.PropCompanyName: req.Name}
	setIfPresent(props, crm.PropCompanyState, req.Province)
	setIfPresent(props, crm.PropCompanyCity, req.City)
	setIfPresent(props, crm.PropCompanyAddress, req.Address)
	return props
}

func setIfPresent(props map[string]string, key, value string) {
	if strings.TrimSpace(value) != "" {
		props[key] = value
	}
}

// readNamedCompanies batch-reads company attributes and drops ghost
// records whose name is empty.
func (s *AssociationService) readNamedCompanies(ctx context.Context, dealID string, ids []string) []domain.CompanySummary {
	if len(ids) == 0 {
		return nil
	}
	objs, err := s.store.BatchReadObjects(ctx, crm.ObjectTypeCompany, ids, []string{crm.PropCompanyName})
	if err != nil {
		s.logger.Warn("reading company attributes failed",
			zap.String("deal_id", dealID), zap.Error(err))
		// Count known, details unknown: keep the IDs visible through
		// the ID slices, report no named companies.
		return nil
	}

	companies := make([]domain.CompanySummary, 0, len(objs))
	for _, obj := range objs {
		if strings.TrimSpace(obj.Properties[crm.PropCompanyName]) == "" {
			continue
		}
		companies = append(companies, domain.CompanySummary{ID: obj.ID, Properties: obj.Properties})
	}
	return companies
}

func (s *AssociationService) enrichContacts(ctx context.Context, dealID string, snapshot *domain.AssociationSnapshot) {
	if len(snapshot.ContactIDs) == 0 {
		return
	}
	objs, err := s.store.BatchReadObjects(ctx, crm.ObjectTypeContact, snapshot.ContactIDs, crm.ContactIdentityProperties)
	if err != nil {
		s.logger.Warn("reading contact attributes failed",
			zap.String("deal_id", dealID), zap.Error(err))
		return
	}

	// Preserve fetch order: the first contact without a chat link is
	// the one surfaced for remediation.
	byID := make(map[string]crm.Object, len(objs))
	for _, obj := range objs {
		byID[obj.ID] = obj
	}
	for _, id := range snapshot.ContactIDs {
		obj, ok := byID[id]
		if !ok {
			continue
		}
		contact := domain.ContactSummary{ID: obj.ID, Properties: obj.Properties}
		snapshot.Contacts = append(snapshot.Contacts, contact)
		if snapshot.MissingChatContact == nil && strings.TrimSpace(obj.Properties[crm.PropChatLink]) == "" {
			c := contact
			snapshot.MissingChatContact = &c
		}
	}
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UniqueCompanyIDs returns the deduplicated, name-filtered company set
// of a snapshot.
func UniqueCompanyIDs(snapshot *domain.AssociationSnapshot) []string {
	ids := make([]string, 0, len(snapshot.Companies))
	for _, c := range snapshot.Companies {
		ids = append(ids, c.ID)
	}
	return dedupe(ids)
}
