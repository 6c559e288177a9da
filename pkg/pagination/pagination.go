// Package pagination holds list paging parameters and the paged response
// shape shared by the stock, sale and service listings.
package pagination

import "gorm.io/gorm"

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Params is the page request taken from ?page= and ?per_page=.
type Params struct {
	Page    int `form:"page" json:"page"`
	PerPage int `form:"per_page" json:"per_page"`
}

func DefaultParams() *Params {
	return &Params{Page: 1, PerPage: DefaultPerPage}
}

// Normalize clamps the page to >= 1 and per-page to [1, MaxPerPage].
func (p *Params) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = DefaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
}

func (p *Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Scope normalizes p and applies it as OFFSET/LIMIT.
func (p *Params) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		p.Normalize()
		return db.Offset(p.Offset()).Limit(p.PerPage)
	}
}

// Meta describes where a page sits in the full result.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// Page is one page of items plus its position.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Pagination *Meta `json:"pagination"`
}

// NewPage wraps items. A nil slice is returned as an empty list.
func NewPage[T any](items []T, p *Params, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	p.Normalize()
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	return &Page[T]{
		Items: items,
		Pagination: &Meta{
			CurrentPage: p.Page,
			PerPage:     p.PerPage,
			Total:       total,
			TotalPages:  pages,
			HasNext:     p.Page < pages,
			HasPrev:     p.Page > 1,
		},
	}
}
