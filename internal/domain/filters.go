package domain

import "github.com/google/uuid"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page normalizes 1-based pagination input.
type Page struct {
	Number int
	Size   int
}

func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Pagination is returned alongside list results.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

func NewPagination(total int, p Page) Pagination {
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	return Pagination{Total: total, Page: p.Number, Pages: pages, Limit: p.Size}
}

type BookFilter struct {
	Search        string
	Category      string
	AvailableOnly bool
	SortBy        string
	SortDesc      bool
	Page          Page
}

type LoanFilter struct {
	Status LoanStatus
	UserID *uuid.UUID
	BookID *uuid.UUID
	Page   Page
}

type UserFilter struct {
	Search string
	Role   UserRole
	Active *bool
	Page   Page
}
