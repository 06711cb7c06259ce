package domain

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCategory is assigned to books created without a category.
const DefaultCategory = "General"

var isbnPattern = regexp.MustCompile(`^(?:\d{10}|\d{13})$`)

type Book struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Author            string    `json:"author,omitempty"`
	ISBN              *string   `json:"isbn,omitempty"`
	Category          string    `json:"category"`
	Description       string    `json:"description,omitempty"`
	CoverImage        string    `json:"cover_image,omitempty"`
	QuantityTotal     int       `json:"quantity_total"`
	QuantityAvailable int       `json:"quantity_available"`
	AddedByID         uuid.UUID `json:"added_by_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BookSummary is the slice of a book embedded in loan views.
type BookSummary struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author,omitempty"`
	CoverImage string    `json:"cover_image,omitempty"`
	Category   string    `json:"category,omitempty"`
}

func (b Book) Summary() BookSummary {
	return BookSummary{ID: b.ID, Title: b.Title, Author: b.Author, CoverImage: b.CoverImage, Category: b.Category}
}

func (b Book) IsAvailable() bool {
	return b.QuantityAvailable > 0
}

// OnLoan is the number of copies currently checked out.
func (b Book) OnLoan() int {
	return b.QuantityTotal - b.QuantityAvailable
}

// IncreaseCopies adds amount copies to both counters.
func (b Book) IncreaseCopies(amount int) (Book, error) {
	if amount < 1 {
		return b, NewError(KindInvalidQuantity, "quantity to add must be a positive integer, got %d", amount)
	}
	b.QuantityTotal += amount
	b.QuantityAvailable += amount
	return b, nil
}

// BorrowCopy takes one available copy.
func (b Book) BorrowCopy() (Book, error) {
	if b.QuantityAvailable <= 0 {
		return b, ErrNoCopiesAvailable
	}
	b.QuantityAvailable--
	return b, nil
}

// ReturnCopy puts one copy back on the shelf.
func (b Book) ReturnCopy() (Book, error) {
	if b.QuantityAvailable >= b.QuantityTotal {
		return b, ErrAllCopiesAlreadyAvailable
	}
	b.QuantityAvailable++
	return b, nil
}

// SetTotalCopies moves the available count by the same delta as the total.
// Shrinking below the number of copies on loan is rejected.
func (b Book) SetTotalCopies(newTotal int) (Book, error) {
	if newTotal < 0 {
		return b, NewError(KindInvalidQuantity, "total quantity cannot be negative, got %d", newTotal)
	}
	available := b.QuantityAvailable + (newTotal - b.QuantityTotal)
	if available < 0 {
		return b, NewError(KindQuantityBelowLoanedCount,
			"cannot set total to %d while %d copies are on loan", newTotal, b.OnLoan())
	}
	b.QuantityTotal = newTotal
	b.QuantityAvailable = available
	return b, nil
}

// CheckInventory verifies 0 <= available <= total.
func (b Book) CheckInventory() error {
	if b.QuantityTotal < 0 || b.QuantityAvailable < 0 || b.QuantityAvailable > b.QuantityTotal {
		return NewError(KindInvalidQuantity, "inventory out of range: available=%d total=%d", b.QuantityAvailable, b.QuantityTotal)
	}
	return nil
}

// BookInput carries the catalog fields accepted on create.
type BookInput struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	CoverImage    string `json:"cover_image"`
	QuantityTotal *int   `json:"quantity_total"`
}

// BookPatch carries optional catalog edits; nil fields are left untouched.
type BookPatch struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	ISBN          *string `json:"isbn"`
	Category      *string `json:"category"`
	Description   *string `json:"description"`
	CoverImage    *string `json:"cover_image"`
	QuantityTotal *int    `json:"quantity_total"`
}

// NewBook validates input and returns a book whose available count equals its total.
func NewBook(in BookInput, addedBy uuid.UUID, now time.Time) (Book, error) {
	total := 1
	if in.QuantityTotal != nil {
		total = *in.QuantityTotal
	}
	b := Book{
		ID:                uuid.New(),
		Title:             strings.TrimSpace(in.Title),
		Author:            strings.TrimSpace(in.Author),
		Category:          strings.TrimSpace(in.Category),
		Description:       in.Description,
		CoverImage:        strings.TrimSpace(in.CoverImage),
		QuantityTotal:     total,
		QuantityAvailable: total,
		AddedByID:         addedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if isbn := strings.TrimSpace(in.ISBN); isbn != "" {
		b.ISBN = &isbn
	}
	if b.Category == "" {
		b.Category = DefaultCategory
	}
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	return b, nil
}

// ApplyPatch returns b with the descriptive fields of p applied. Quantity is
// handled separately through SetTotalCopies.
func (b Book) ApplyPatch(p BookPatch) (Book, error) {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		b.Author = strings.TrimSpace(*p.Author)
	}
	if p.ISBN != nil {
		isbn := strings.TrimSpace(*p.ISBN)
		if isbn == "" {
			b.ISBN = nil
		} else {
			b.ISBN = &isbn
		}
	}
	if p.Category != nil {
		b.Category = strings.TrimSpace(*p.Category)
		if b.Category == "" {
			b.Category = DefaultCategory
		}
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.CoverImage != nil {
		b.CoverImage = strings.TrimSpace(*p.CoverImage)
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	return b, nil
}

// Validate checks the catalog field rules.
func (b Book) Validate() error {
	if b.Title == "" {
		return NewError(KindValidation, "book title is required")
	}
	if b.ISBN != nil && !isbnPattern.MatchString(*b.ISBN) {
		return NewError(KindValidation, "invalid ISBN (must be 10 or 13 digits)")
	}
	if b.CoverImage != "" && !isHTTPURL(b.CoverImage) {
		return NewError(KindValidation, "cover image must be a valid URL")
	}
	if b.QuantityTotal < 0 {
		return NewError(KindInvalidQuantity, "total quantity cannot be negative")
	}
	return b.CheckInventory()
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
