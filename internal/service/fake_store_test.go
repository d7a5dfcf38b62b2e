package service_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/marketpaper/quote-api/internal/crm"
)

// fakeStore is an in-memory CRMStore with per-verb overrides. The zero
// value behaves like an empty remote store.
type fakeStore struct {
	mu sync.Mutex

	objects      map[string]map[string]*crm.Object // objectType -> id -> object
	associations map[string][]string               // "fromType/id/toType" -> ids
	nextID       int

	patches []patchCall
	deletes []string
	creates []createCall
	links   []linkCall
	calls   []string

	getErr    error
	patchErr  error
	createErr func(props map[string]string) error
	deleteErr func(id string) error
	linkErr   error
	listErr   error
	batchErr  error
	searchFn  func(req crm.SearchRequest) (*crm.SearchResult, error)
}

type patchCall struct {
	ObjectType string
	ID         string
	Properties map[string]string
}

type createCall struct {
	ObjectType   string
	Properties   map[string]string
	Associations []crm.AssociationSpec
}

type linkCall struct {
	FromType string
	FromID   string
	ToType   string
	ToID     string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:      map[string]map[string]*crm.Object{},
		associations: map[string][]string{},
		nextID:       1000,
	}
}

func (f *fakeStore) putObject(objectType, id string, props map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects[objectType] == nil {
		f.objects[objectType] = map[string]*crm.Object{}
	}
	f.objects[objectType][id] = &crm.Object{ID: id, Properties: props}
}

func (f *fakeStore) putAssociations(fromType, id, toType string, ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.associations[fromType+"/"+id+"/"+toType] = ids
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStore) GetObject(ctx context.Context, objectType, id string, properties []string) (*crm.Object, error) {
	f.record("get:" + objectType + "/" + id)
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[objectType][id]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", objectType, id, crm.ErrNotFound)
	}
	return obj, nil
}

func (f *fakeStore) PatchObject(ctx context.Context, objectType, id string, properties map[string]string) error {
	f.record("patch:" + objectType + "/" + id)
	if f.patchErr != nil {
		return f.patchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.objects[objectType][id]; ok {
		for k, v := range properties {
			obj.Properties[k] = v
		}
	}
	f.patches = append(f.patches, patchCall{ObjectType: objectType, ID: id, Properties: properties})
	return nil
}

func (f *fakeStore) CreateObject(ctx context.Context, objectType string, properties map[string]string, associations []crm.AssociationSpec) (*crm.Object, error) {
	f.record("create:" + objectType)
	if f.createErr != nil {
		if err := f.createErr(properties); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	if f.objects[objectType] == nil {
		f.objects[objectType] = map[string]*crm.Object{}
	}
	f.objects[objectType][id] = &crm.Object{ID: id, Properties: properties}
	f.creates = append(f.creates, createCall{ObjectType: objectType, Properties: properties, Associations: associations})
	return f.objects[objectType][id], nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, objectType, id string) error {
	f.record("delete:" + objectType + "/" + id)
	if f.deleteErr != nil {
		if err := f.deleteErr(id); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects[objectType], id)
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeStore) CreateAssociation(ctx context.Context, fromType, fromID, toType, toID string) error {
	f.record("link:" + fromType + "/" + fromID + "/" + toType + "/" + toID)
	if f.linkErr != nil {
		return f.linkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fromType + "/" + fromID + "/" + toType
	f.associations[key] = append(f.associations[key], toID)
	f.links = append(f.links, linkCall{FromType: fromType, FromID: fromID, ToType: toType, ToID: toID})
	return nil
}

func (f *fakeStore) ListAssociations(ctx context.Context, fromType, id, toType string) ([]string, error) {
	f.record("list:" + fromType + "/" + id + "/" + toType)
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.associations[fromType+"/"+id+"/"+toType], nil
}

func (f *fakeStore) BatchReadObjects(ctx context.Context, objectType string, ids, properties []string) ([]crm.Object, error) {
	f.record("batchRead:" + objectType)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []crm.Object
	for _, id := range ids {
		if obj, ok := f.objects[objectType][id]; ok {
			out = append(out, *obj)
		}
	}
	return out, nil
}

func (f *fakeStore) BatchReadAssociations(ctx context.Context, fromType, toType string, ids []string) (map[string][]string, error) {
	f.record("batchAssoc:" + fromType + "/" + toType)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string][]string{}
	for _, id := range ids {
		if assoc, ok := f.associations[fromType+"/"+id+"/"+toType]; ok {
			out[id] = assoc
		}
	}
	return out, nil
}

func (f *fakeStore) SearchObjects(ctx context.Context, objectType string, req crm.SearchRequest) (*crm.SearchResult, error) {
	f.record("search:" + objectType)
	if f.searchFn != nil {
		return f.searchFn(req)
	}
	return &crm.SearchResult{}, nil
}
