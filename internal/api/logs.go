package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gudangapp/gudang/internal/model"
)

// ListLogs returns the full audit log.
func (c *Client) ListLogs(ctx context.Context) ([]model.ItemLog, error) {
	return c.fetchLogs(ctx, "/items/item_logs")
}

// ItemLogs returns the audit log for a single item.
func (c *Client) ItemLogs(ctx context.Context, itemID string) ([]model.ItemLog, error) {
	return c.fetchLogs(ctx, "/items/item_logs/"+url.PathEscape(itemID))
}

// fetchLogs decodes a log listing. Older server versions wrap the array in
// an object under "items" or "logs"; both shapes are accepted.
func (c *Client) fetchLogs(ctx context.Context, path string) ([]model.ItemLog, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	var logs []model.ItemLog
	if err := json.Unmarshal(raw, &logs); err == nil {
		return logs, nil
	}

	var wrapped struct {
		Items []model.ItemLog `json:"items"`
		Logs  []model.ItemLog `json:"logs"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &Error{Kind: KindServer, Message: fmt.Sprintf("decoding logs: %v", err)}
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	return wrapped.Logs, nil
}
