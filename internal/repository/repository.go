package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tzayo/library-management-system/internal/domain"
)

type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*domain.Book, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Book, error)
	List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error)
	ListCategories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, book *domain.Book) error
	UpdateInventory(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (domain.UserStats, error)
}

type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	HasOpenLoan(ctx context.Context, bookID, userID uuid.UUID) (bool, error)
	CountOpenByBook(ctx context.Context, bookID uuid.UUID) (int, error)
	CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error)
	// MarkReturned closes the loan only if it is still open.
	MarkReturned(ctx context.Context, loan *domain.Loan) error
	List(ctx context.Context, filter domain.LoanFilter, now time.Time) ([]domain.Loan, int, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error)

	// Scheduler queries. Updates are conditional so concurrent runs stay monotonic.
	ListStaleOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error)
	MarkOverdue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ListReminderCandidates(ctx context.Context, cutoff time.Time) ([]domain.Loan, error)
	MarkReminderSent(ctx context.Context, ids []uuid.UUID, now time.Time) (int, error)

	Stats(ctx context.Context, now time.Time, topN int) (domain.LoanStats, error)
}

// Store groups the repositories over one database handle. WithTx hands fn a
// Store whose repositories all run inside the same transaction.
type Store interface {
	Books() BookRepository
	Users() UserRepository
	Loans() LoanRepository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
