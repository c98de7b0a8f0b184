package store

import (
	"strings"
	"unicode/utf8"

	"github.com/taskflowhq/taskflow/types"
)

const (
	// DefaultLimit is the page size used when the caller does not ask for
	// one. The listing and search endpoints share this single default.
	DefaultLimit = 10
	// MaxLimit caps the page size a caller may request.
	MaxLimit = 100

	// MinSearchLength is the shortest accepted free-text query, measured
	// after trimming.
	MinSearchLength = 2

	SortAsc  = "asc"
	SortDesc = "desc"
)

// sortFields is the whitelist of sortable fields. Anything else falls back
// to createdAt.
var sortFields = map[string]struct{}{
	"createdAt":    {},
	"lastModified": {},
	"dueDate":      {},
	"priority":     {},
	"text":         {},
	"category":     {},
	"completed":    {},
}

// Query is the API-level filter/sort/page request. Each backend translates
// it into its native form: MongoDB query operators and find options, or a
// predicate plus in-process sort for the memory store.
type Query struct {
	Page  int
	Limit int

	// Completed is tri-state: nil means "any".
	Completed *bool
	Priority  string
	// Category matches case-insensitively as a substring.
	Category string
	// Search is free text across text, category, and tags. The document
	// backend uses its full-text index with relevance ranking; the memory
	// backend substring-matches. Must be at least MinSearchLength chars.
	Search string
	// IncludeOverdue forces dueDate < now AND completed = false on top of
	// the other filters.
	IncludeOverdue bool

	SortBy    string
	SortOrder string
}

// DefaultQuery returns a query for the first page with default ordering
// (newest first).
func DefaultQuery() Query {
	return Query{
		Page:      1,
		Limit:     DefaultLimit,
		SortBy:    "createdAt",
		SortOrder: SortDesc,
	}
}

// Normalize clamps paging values and resolves the sort spec against the
// whitelist. It is idempotent and always leaves the query executable.
func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Priority = strings.ToLower(strings.TrimSpace(q.Priority))
	q.Category = strings.TrimSpace(q.Category)

	if _, ok := sortFields[q.SortBy]; !ok {
		q.SortBy = "createdAt"
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
}

// Validate rejects queries the API contract forbids. Today that is only
// the minimum search length.
func (q Query) Validate() error {
	if q.Search != "" && utf8.RuneCountInString(strings.TrimSpace(q.Search)) < MinSearchLength {
		return types.NewValidationError("search query must be at least 2 characters")
	}
	return nil
}

// Skip returns the number of records the page offset passes over.
func (q Query) Skip() int64 {
	return int64(q.Page-1) * int64(q.Limit)
}

// HasSearch reports whether a free-text search is requested.
func (q Query) HasSearch() bool {
	return strings.TrimSpace(q.Search) != ""
}

// Pagination is the page metadata attached to list responses.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// NewPagination computes page metadata for a result of total matching
// items under the given query.
func NewPagination(q Query, total int64) Pagination {
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return Pagination{
		CurrentPage:  q.Page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: q.Limit,
		HasNextPage:  q.Page < totalPages,
		HasPrevPage:  q.Page > 1,
	}
}
