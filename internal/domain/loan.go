package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusActive, LoanStatusOverdue, LoanStatusReturned:
		return true
	}
	return false
}

type Loan struct {
	ID            uuid.UUID  `json:"id"`
	BookID        uuid.UUID  `json:"book_id"`
	UserID        uuid.UUID  `json:"user_id"`
	ProcessedByID uuid.UUID  `json:"processed_by_id"`
	BorrowedAt    time.Time  `json:"borrowed_at"`
	DueDate       time.Time  `json:"due_date"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	Status        LoanStatus `json:"status"`
	ReminderSent  bool       `json:"reminder_sent"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeriveStatus maps (returnedAt, dueDate, now) onto the three loan states.
// A loan due exactly now is still active.
func DeriveStatus(returnedAt *time.Time, dueDate, now time.Time) LoanStatus {
	switch {
	case returnedAt != nil:
		return LoanStatusReturned
	case now.After(dueDate):
		return LoanStatusOverdue
	default:
		return LoanStatusActive
	}
}

// NewLoan opens a loan at now. Without an explicit due date the loan runs for
// defaultDays calendar days.
func NewLoan(bookID, userID, processedByID uuid.UUID, dueDate *time.Time, defaultDays int, now time.Time) Loan {
	due := now.AddDate(0, 0, defaultDays)
	if dueDate != nil {
		due = *dueDate
	}
	l := Loan{
		ID:            uuid.New(),
		BookID:        bookID,
		UserID:        userID,
		ProcessedByID: processedByID,
		BorrowedAt:    now,
		DueDate:       due,
		ReminderSent:  false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return l.WithDerivedStatus(now)
}

// IsOpen reports whether the loan has not been returned.
func (l Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}

// WithDerivedStatus returns l with Status recomputed against now. Applying it to
// a consistent loan changes nothing.
func (l Loan) WithDerivedStatus(now time.Time) Loan {
	l.Status = DeriveStatus(l.ReturnedAt, l.DueDate, now)
	return l
}

// MarkReturned closes an open loan.
func (l Loan) MarkReturned(now time.Time) (Loan, error) {
	if !l.IsOpen() {
		return l, ErrAlreadyReturned
	}
	returned := now
	l.ReturnedAt = &returned
	l.Status = LoanStatusReturned
	l.UpdatedAt = now
	return l, nil
}

func (l Loan) IsOverdue(now time.Time) bool {
	return l.IsOpen() && now.After(l.DueDate)
}

// DaysUntilDue rounds up to whole days; negative values mean overdue.
// The second result is false for returned loans.
func (l Loan) DaysUntilDue(now time.Time) (int, bool) {
	if !l.IsOpen() {
		return 0, false
	}
	days := l.DueDate.Sub(now).Hours() / 24
	return int(math.Ceil(days)), true
}

// ReminderCutoff is the latest due date eligible for a reminder at now.
func ReminderCutoff(now time.Time, leadDays int) time.Time {
	return now.AddDate(0, 0, leadDays)
}

// EligibleForReminder mirrors the reminder selection: open, not yet reminded,
// and due on or before now + leadDays.
func (l Loan) EligibleForReminder(now time.Time, leadDays int) bool {
	if !l.IsOpen() || l.ReminderSent {
		return false
	}
	return !l.DueDate.After(ReminderCutoff(now, leadDays))
}

// LoanView is a loan with the book and user summaries a client needs.
type LoanView struct {
	Loan
	Book        *BookSummary `json:"book,omitempty"`
	Borrower    *UserSummary `json:"user,omitempty"`
	ProcessedBy *UserSummary `json:"processed_by,omitempty"`
}

// ReminderItem pairs a loan with its book for notification rendering.
type ReminderItem struct {
	Loan Loan
	Book Book
}

// LoanStats aggregates the ledger for the dashboard.
type LoanStats struct {
	Active       int           `json:"active"`
	Overdue      int           `json:"overdue"`
	Returned     int           `json:"returned"`
	Total        int           `json:"total"`
	PopularBooks []PopularBook `json:"popular_books"`
}

type PopularBook struct {
	Book      BookSummary `json:"book"`
	LoanCount int         `json:"loan_count"`
}
