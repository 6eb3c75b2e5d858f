package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope is the wrapper every REST response shares.
type Envelope[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      T         `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OK wraps data in a successful envelope.
func OK[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()}
}

// Failure builds an error envelope.
func Failure(message string) Envelope[any] {
	return Envelope[any]{Success: false, Message: message, Error: message, Timestamp: time.Now().UTC()}
}

// ErrorBody is the subset of an envelope needed to classify a failure.
type ErrorBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HumanMessage returns the best human-readable text in the body.
func (b ErrorBody) HumanMessage() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

// Page is a paginated list.
type Page[T any] struct {
	Content       []T  `json:"content"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	HasNext       bool `json:"hasNext"`
	HasPrevious   bool `json:"hasPrevious"`
}

// NewPage slices items into the requested page. size <= 0 means everything.
func NewPage[T any](items []T, page, size int) Page[T] {
	total := len(items)
	if size <= 0 {
		size = total
	}
	if page < 0 {
		page = 0
	}
	totalPages := 1
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	if totalPages == 0 {
		totalPages = 1
	}
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	content := make([]T, 0, end-start)
	content = append(content, items[start:end]...)
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page >= totalPages-1,
		HasNext:       page < totalPages-1,
		HasPrevious:   page > 0,
	}
}

// singlePage wraps a complete, unpaginated list.
func singlePage[T any](items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return NewPage(items, 0, 0)
}

var errEmptyBody = errors.New("empty response body")

// DecodeList normalizes the three list shapes the backend has used over time
// into a single Page:
//   - a bare JSON array
//   - an envelope whose data is an array
//   - an envelope whose data is a page
func DecodeList[T any](body []byte) (Page[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Page[T]{}, errEmptyBody
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decode list: %w", err)
		}
		return singlePage(items), nil
	}

	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Page[T]{}, fmt.Errorf("decode envelope: %w", err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return singlePage[T](nil), nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return Page[T]{}, fmt.Errorf("decode list data: %w", err)
		}
		return singlePage(items), nil
	}

	var page Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return Page[T]{}, fmt.Errorf("decode page data: %w", err)
	}
	if page.Content == nil {
		page.Content = []T{}
	}
	return page, nil
}

// DecodeItem accepts either a bare object or an envelope carrying it.
func DecodeItem[T any](body []byte) (T, error) {
	var zero T
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return zero, errEmptyBody
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err == nil {
		_, hasSuccess := probe["success"]
		data, hasData := probe["data"]
		if hasSuccess && hasData {
			var out T
			if err := json.Unmarshal(data, &out); err != nil {
				return zero, fmt.Errorf("decode envelope data: %w", err)
			}
			return out, nil
		}
	}

	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return zero, fmt.Errorf("decode item: %w", err)
	}
	return out, nil
}
