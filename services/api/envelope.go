package api

import (
	"encoding/json"
)

// Envelope is the shape shared by every backend response.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Pagination as reported by list endpoints.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages,omitempty"`
}

// Page is a decoded collection payload.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Total is the reported total, or the number of items when none was reported.
func (p Page[T]) Total() int {
	if p.Pagination.Total > len(p.Items) {
		return p.Pagination.Total
	}
	return len(p.Items)
}

// collectionKeys are the object fields list endpoints use for their items.
var collectionKeys = []string{"items", "data", "results", "users", "bookings", "vehicles", "trips", "coupons", "notifications", "drivers"}

// DecodePage accepts either a bare JSON array or an object holding the items under a
// known key next to an optional pagination object (or a top-level total).
func DecodePage[T any](raw json.RawMessage) (Page[T], error) {
	var page Page[T]
	if len(raw) == 0 || string(raw) == "null" {
		return page, nil
	}
	if raw[0] == '[' {
		err := json.Unmarshal(raw, &page.Items)
		return page, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return page, err
	}
	for _, k := range collectionKeys {
		v, ok := obj[k]
		if !ok || len(v) == 0 || v[0] != '[' {
			continue
		}
		if err := json.Unmarshal(v, &page.Items); err != nil {
			return page, err
		}
		break
	}
	if p, ok := obj["pagination"]; ok {
		_ = json.Unmarshal(p, &page.Pagination)
	}
	if page.Pagination.Total == 0 {
		if t, ok := obj["total"]; ok {
			_ = json.Unmarshal(t, &page.Pagination.Total)
		}
	}
	return page, nil
}
