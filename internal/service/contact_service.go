package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/marketpaper/quote-api/internal/chat"
	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/domain"
	"go.uber.org/zap"
)

// ContactService patches contact records in the remote store
type ContactService struct {
	store  CRMStore
	logger *zap.Logger
}

func NewContactService(store CRMStore, logger *zap.Logger) *ContactService {
	return &ContactService{store: store, logger: logger}
}

// Update patches the contact's identity fields and chat link. When the
// link carries both chat identifiers they are stored alongside it so
// downstream automations need not re-parse the URL.
func (s *ContactService) Update(ctx context.Context, contactID string, req *domain.UpdateContactRequest) (*domain.ContactSummary, error) {
	props := map[string]string{}
	if req.FirstName != "" {
		props[crm.PropFirstName] = req.FirstName
	}
	if req.LastName != "" {
		props[crm.PropLastName] = req.LastName
	}
	if req.Email != "" {
		props[crm.PropEmail] = req.Email
	}
	if req.Phone != "" {
		props[crm.PropPhone] = req.Phone
	}
	if req.ChatLink != "" {
		props[crm.PropChatLink] = req.ChatLink
		if ids, ok := chat.ParseLink(req.ChatLink); ok {
			props[crm.PropChatPageID] = ids.PageID
			props[crm.PropChatUserID] = ids.UserID
		}
	}

	if len(props) == 0 {
		return s.get(ctx, contactID)
	}

	if err := s.store.PatchObject(ctx, crm.ObjectTypeContact, contactID, props); err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("patching contact %s: %w", contactID, err)
	}

	s.logger.Info("contact updated",
		zap.String("contact_id", contactID),
		zap.Int("fields", len(props)))

	return s.get(ctx, contactID)
}

func (s *ContactService) get(ctx context.Context, contactID string) (*domain.ContactSummary, error) {
	props := append([]string{}, crm.ContactIdentityProperties...)
	props = append(props, crm.PropChatPageID, crm.PropChatUserID)

	obj, err := s.store.GetObject(ctx, crm.ObjectTypeContact, contactID, props)
	if err != nil {
		if errors.Is(err, crm.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("fetching contact %s: %w", contactID, err)
	}
	return &domain.ContactSummary{ID: obj.ID, Properties: obj.Properties}, nil
}
