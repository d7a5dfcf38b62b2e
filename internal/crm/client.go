// Package crm is the HTTP client for the remote CRM object store. It
// exposes the small verb set the rest of the service is written
// against: single-object reads and writes, association listing with a
// legacy fallback, batch reads, and property search.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Object is a generic remote object: an ID plus a flat property map.
// Property values are strings on the wire regardless of their logical
// type.
type Object struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// AssociationSpec links a newly created object to an existing one
type AssociationSpec struct {
	ToID   string
	TypeID int
}

// SearchFilter is one property predicate of a search request
type SearchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

// SearchRequest queries objects by property filters, paged by cursor
type SearchRequest struct {
	Filters    []SearchFilter
	Properties []string
	Limit      int
	After      string
}

// SearchResult is one page of search hits
type SearchResult struct {
	Results   []Object
	NextAfter string
	Total     int64
}

// Client talks to the remote CRM REST API. All calls run under a
// per-request deadline; timeouts surface as ErrTimeout so callers can
// tell them apart from remote rejections.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a CRM client. A zero timeout falls back to 15s.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Warn("crm request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &RemoteError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// GetObject fetches one object with the given properties
func (c *Client) GetObject(ctx context.Context, objectType, id string, properties []string) (*Object, error) {
	q := url.Values{}
	if len(properties) > 0 {
		q.Set("properties", strings.Join(properties, ","))
	}
	var obj Object
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/crm/v3/objects/%s/%s", objectType, id), q, nil, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// PatchObject updates properties on an existing object
func (c *Client) PatchObject(ctx context.Context, objectType, id string, properties map[string]string) error {
	body := map[string]interface{}{"properties": properties}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/crm/v3/objects/%s/%s", objectType, id), nil, body, nil)
}

// CreateObject creates an object, optionally associated to existing
// objects at creation time.
func (c *Client) CreateObject(ctx context.Context, objectType string, properties map[string]string, associations []AssociationSpec) (*Object, error) {
	body := map[string]interface{}{"properties": properties}
	if len(associations) > 0 {
		specs := make([]map[string]interface{}, 0, len(associations))
		for _, a := range associations {
			specs = append(specs, map[string]interface{}{
				"to": map[string]string{"id": a.ToID},
				"types": []map[string]interface{}{{
					"associationCategory": "HUBSPOT_DEFINED",
					"associationTypeId":   a.TypeID,
				}},
			})
		}
		body["associations"] = specs
	}
	var obj Object
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/crm/v3/objects/%s", objectType), nil, body, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// DeleteObject removes one object. Deleting an already absent object
// returns ErrNotFound.
func (c *Client) DeleteObject(ctx context.Context, objectType, id string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/crm/v3/objects/%s/%s", objectType, id), nil, nil, nil)
}

type associationPage struct {
	Results []struct {
		ToObjectID json.Number `json:"toObjectId"`
		ID         string      `json:"id"`
	} `json:"results"`
}

// ListAssociations returns the IDs of objects associated to the given
// one. It tries the primary association endpoint first and falls back
// to the legacy one when the primary reports the relation unknown.
func (c *Client) ListAssociations(ctx context.Context, fromType, id, toType string) ([]string, error) {
	ids, err := c.listAssociationsAt(ctx, fmt.Sprintf("/crm/v4/objects/%s/%s/associations/%s", fromType, id, toType))
	if err == nil {
		return ids, nil
	}
	var remote *RemoteError
	if errors.Is(err, ErrNotFound) || (errors.As(err, &remote) && remote.StatusCode == http.StatusBadRequest) {
		return c.listAssociationsAt(ctx, fmt.Sprintf("/crm/v3/objects/%s/%s/associations/%s", fromType, id, toType))
	}
	return nil, err
}

type associationLabelPage struct {
	Results []associationLabel `json:"results"`
	Labels  []associationLabel `json:"labels"`
}

type associationLabel struct {
	Category string      `json:"associationCategory"`
	TypeID   json.Number `json:"associationTypeId"`
	Label    string      `json:"label"`
}

// legacy v3 association type names per object pair
var legacyAssociationTypes = map[string]string{
	"deals->contacts":     "deal_to_contact",
	"deals->companies":    "deal_to_company",
	"contacts->companies": "contact_to_company",
	"companies->contacts": "company_to_contact",
	"companies->deals":    "company_to_deal",
	"contacts->deals":     "contact_to_deal",
}

// CreateAssociation links two existing objects. It resolves a built-in
// association type from the labels endpoint and creates through the
// primary API; when no type can be resolved it falls back to the
// legacy endpoint with the pair's well-known type name.
func (c *Client) CreateAssociation(ctx context.Context, fromType, fromID, toType, toID string) error {
	typeID, err := c.defaultAssociationType(ctx, fromType, toType)
	if err != nil {
		c.logger.Warn("association label lookup failed, using legacy create",
			zap.String("from_type", fromType),
			zap.String("to_type", toType),
			zap.Error(err))
	}
	if typeID > 0 {
		body := map[string]interface{}{
			"inputs": []map[string]interface{}{{
				"from": map[string]string{"id": fromID},
				"to":   map[string]string{"id": toID},
				"types": []map[string]interface{}{{
					"associationCategory": "HUBSPOT_DEFINED",
					"associationTypeId":   typeID,
				}},
			}},
		}
		return c.do(ctx, http.MethodPost,
			fmt.Sprintf("/crm/v4/associations/%s/%s/batch/create", fromType, toType), nil, body, nil)
	}

	name, ok := legacyAssociationTypes[fromType+"->"+toType]
	if !ok {
		return fmt.Errorf("no association type for %s->%s", fromType, toType)
	}
	return c.do(ctx, http.MethodPut,
		fmt.Sprintf("/crm/v3/objects/%s/%s/associations/%s/%s/%s", fromType, fromID, toType, toID, name), nil, nil, nil)
}

// defaultAssociationType picks a built-in association type ID for the
// pair. Contacts to companies prefer the primary label when present.
func (c *Client) defaultAssociationType(ctx context.Context, fromType, toType string) (int, error) {
	var page associationLabelPage
	if err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("/crm/v4/associations/%s/%s/labels", fromType, toType), nil, nil, &page); err != nil {
		return 0, err
	}
	labels := page.Results
	if len(labels) == 0 {
		labels = page.Labels
	}

	if fromType == ObjectTypeContact && toType == ObjectTypeCompany {
		for _, l := range labels {
			if strings.EqualFold(l.Category, "HUBSPOT_DEFINED") &&
				strings.Contains(strings.ToLower(l.Label), "primary") {
				if id, err := l.TypeID.Int64(); err == nil && id > 0 {
					return int(id), nil
				}
			}
		}
	}
	for _, l := range labels {
		if strings.EqualFold(l.Category, "HUBSPOT_DEFINED") {
			if id, err := l.TypeID.Int64(); err == nil && id > 0 {
				return int(id), nil
			}
		}
	}
	return 0, nil
}

func (c *Client) listAssociationsAt(ctx context.Context, path string) ([]string, error) {
	var page associationPage
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &page); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(page.Results))
	for _, r := range page.Results {
		switch {
		case r.ToObjectID != "":
			ids = append(ids, r.ToObjectID.String())
		case r.ID != "":
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

type batchReadResponse struct {
	Results []Object `json:"results"`
}

// BatchReadObjects fetches many objects by ID in one call. Unknown IDs
// are simply absent from the result.
func (c *Client) BatchReadObjects(ctx context.Context, objectType string, ids, properties []string) ([]Object, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	inputs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		inputs = append(inputs, map[string]string{"id": id})
	}
	body := map[string]interface{}{"inputs": inputs, "properties": properties}
	var resp batchReadResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/crm/v3/objects/%s/batch/read", objectType), nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

type batchAssociationsResponse struct {
	Results []struct {
		From struct {
			ID string `json:"id"`
		} `json:"from"`
		To []struct {
			ToObjectID json.Number `json:"toObjectId"`
		} `json:"to"`
	} `json:"results"`
}

// BatchReadAssociations resolves associations for many source objects
// in one call, returning a map from source ID to associated IDs.
func (c *Client) BatchReadAssociations(ctx context.Context, fromType, toType string, ids []string) (map[string][]string, error) {
	if len(ids) == 0 {
		return map[string][]string{}, nil
	}
	inputs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		inputs = append(inputs, map[string]string{"id": id})
	}
	body := map[string]interface{}{"inputs": inputs}
	var resp batchAssociationsResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/crm/v4/associations/%s/%s/batch/read", fromType, toType), nil, body, &resp); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(resp.Results))
	for _, r := range resp.Results {
		for _, to := range r.To {
			out[r.From.ID] = append(out[r.From.ID], to.ToObjectID.String())
		}
	}
	return out, nil
}

type searchResponse struct {
	Total   int64    `json:"total"`
	Results []Object `json:"results"`
	Paging  *struct {
		Next *struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// SearchObjects queries objects by property filters, one page per call
func (c *Client) SearchObjects(ctx context.Context, objectType string, req SearchRequest) (*SearchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	body := map[string]interface{}{
		"limit":      limit,
		"properties": req.Properties,
	}
	if len(req.Filters) > 0 {
		body["filterGroups"] = []map[string]interface{}{{"filters": req.Filters}}
	}
	if req.After != "" {
		body["after"] = req.After
	}
	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/crm/v3/objects/%s/search", objectType), nil, body, &resp); err != nil {
		return nil, err
	}
	result := &SearchResult{Results: resp.Results, Total: resp.Total}
	if resp.Paging != nil && resp.Paging.Next != nil {
		result.NextAfter = resp.Paging.Next.After
	}
	return result, nil
}
