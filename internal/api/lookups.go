package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gudangapp/gudang/internal/model"
)

// NewLookup is the payload for creating a lookup record.
type NewLookup struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateLookup is a partial patch for a lookup record.
type UpdateLookup struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Lookups returns all records of the given lookup kind (categories,
// conditions, item_sources, locations, procurement_statuses, user_roles).
func (c *Client) Lookups(ctx context.Context, kind string) ([]model.Lookup, error) {
	if !model.KnownLookup(kind) {
		return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("unknown lookup kind %q", kind)}
	}
	var out []model.Lookup
	if err := c.do(ctx, http.MethodGet, "/lookup/"+kind, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLookup creates a record in a writable lookup table.
func (c *Client) CreateLookup(ctx context.Context, kind string, lookup NewLookup) (*model.Lookup, error) {
	var out model.Lookup
	if err := c.do(ctx, http.MethodPost, "/lookup/"+kind, lookup, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLookup patches a record in a writable lookup table.
func (c *Client) UpdateLookup(ctx context.Context, kind, id string, patch UpdateLookup) (*model.Lookup, error) {
	var out model.Lookup
	if err := c.do(ctx, http.MethodPatch, "/lookup/"+kind+"/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteLookup removes a record from a writable lookup table.
func (c *Client) DeleteLookup(ctx context.Context, kind, id string) error {
	return c.do(ctx, http.MethodDelete, "/lookup/"+kind+"/"+url.PathEscape(id), nil, nil)
}
