// Package listing turns list-view query strings into typed filters and
// pages. It knows nothing about storage; repositories consume the
// filters it produces.
package listing

import (
	"strconv"
	"strings"
)

// PageSize is the fixed number of rows per list page.
const PageSize = 20

// Page is one page of a filtered list plus what the caller needs to
// render page controls.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// NewPage assembles a Page. A nil items slice becomes empty so it
// serializes as [].
func NewPage[T any](items []T, total, page int) Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: TotalPages(total),
	}
}

// ParsePage reads a 1-based page number. Anything that is not a
// positive integer means page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// TotalPages is ceil(total / PageSize); zero rows give zero pages.
func TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// Offset is the number of rows to skip for a 1-based page.
func Offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}
