package models

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50

	// MaxPage keeps (page-1)*limit within int for every allowed limit
	MaxPage = math.MaxInt / MaxPageLimit
)

// Pagination describes one page of a listing
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination normalizes page and limit. Page is in [1, MaxPage] and limit is
// clamped to [1, MaxPageLimit]; a zero limit falls back to DefaultPageLimit.
func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// Skip returns the number of documents preceding the page
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Limit
}

// WithTotal returns a copy with total and the derived page count set
func (p Pagination) WithTotal(total int64) Pagination {
	p.Total = total
	p.Pages = int(math.Ceil(float64(total) / float64(p.Limit)))
	return p
}
