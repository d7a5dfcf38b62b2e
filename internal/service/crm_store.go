package service

import (
	"context"

	"github.com/marketpaper/quote-api/internal/crm"
)

// CRMStore is the remote-store surface the services are written
// against. *crm.Client satisfies it; tests substitute a fake.
type CRMStore interface {
	GetObject(ctx context.Context, objectType, id string, properties []string) (*crm.Object, error)
	PatchObject(ctx context.Context, objectType, id string, properties map[string]string) error
	CreateObject(ctx context.Context, objectType string, properties map[string]string, associations []crm.AssociationSpec) (*crm.Object, error)
	DeleteObject(ctx context.Context, objectType, id string) error
	CreateAssociation(ctx context.Context, fromType, fromID, toType, toID string) error
	ListAssociations(ctx context.Context, fromType, id, toType string) ([]string, error)
	BatchReadObjects(ctx context.Context, objectType string, ids, properties []string) ([]crm.Object, error)
	BatchReadAssociations(ctx context.Context, fromType, toType string, ids []string) (map[string][]string, error)
	SearchObjects(ctx context.Context, objectType string, req crm.SearchRequest) (*crm.SearchResult, error)
}
