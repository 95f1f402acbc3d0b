package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gudangapp/gudang/internal/model"
)

// ListItems returns items matching the filter.
func (c *Client) ListItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	path := "/items"
	if !filter.IsZero() {
		q := url.Values{}
		if filter.CategoryID != "" {
			q.Set("category_id", filter.CategoryID)
		}
		if filter.SourceID != "" {
			q.Set("source_id", filter.SourceID)
		}
		if filter.Query != "" {
			q.Set("q", filter.Query)
		}
		if filter.Page > 0 {
			q.Set("page", strconv.Itoa(filter.Page))
		}
		path += "?" + q.Encode()
	}

	var out []model.Item
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetItem returns one item by id.
func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var out model.Item
	if err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateItem creates an item and returns the server-assigned record.
func (c *Client) CreateItem(ctx context.Context, item model.NewItem) (*model.Item, error) {
	var out model.Item
	if err := c.do(ctx, http.MethodPost, "/items", item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem applies a partial patch to an item.
func (c *Client) UpdateItem(ctx context.Context, id string, patch model.UpdateItem) (*model.Item, error) {
	var out model.Item
	if err := c.do(ctx, http.MethodPatch, "/items/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteItem deletes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(id), nil, nil)
}
