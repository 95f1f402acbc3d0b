package model

import (
	"fmt"
	"sort"
	"time"
)

// ItemLog is an immutable audit record for an item. Logs are only ever
// fetched and diffed for display, never created or changed locally.
type ItemLog struct {
	ID        string         `json:"id"`
	ItemID    string         `json:"item_id"`
	ItemName  string         `json:"item_name,omitempty"`
	Action    string         `json:"action"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	Note      string         `json:"note,omitempty"`
	By        string         `json:"by,omitempty"`
	UserName  string         `json:"user_name,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Log actions.
const (
	LogActionCreate = "create"
	LogActionUpdate = "update"
	LogActionDelete = "delete"
)

// FieldChange is one field-level difference between a log's before and
// after snapshots.
type FieldChange struct {
	Field  string
	Before string
	After  string
}

// Changes computes the field-level differences between Before and After,
// sorted by field name. Fields present in only one snapshot are reported
// with an empty counterpart.
func (l ItemLog) Changes() []FieldChange {
	fields := map[string]bool{}
	for k := range l.Before {
		fields[k] = true
	}
	for k := range l.After {
		fields[k] = true
	}

	var changes []FieldChange
	for k := range fields {
		before := stringify(l.Before[k])
		after := stringify(l.After[k])
		if before != after {
			changes = append(changes, FieldChange{Field: k, Before: before, After: after})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
