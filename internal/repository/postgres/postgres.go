package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/tzayo/library-management-system/internal/dbx"
	"github.com/tzayo/library-management-system/internal/repository"
)

type Store struct {
	db    *sql.DB
	books repository.BookRepository
	users repository.UserRepository
	loans repository.LoanRepository
}

func NewStore(db *sql.DB) *Store {
	return newStore(db, db)
}

func newStore(db *sql.DB, conn dbx.DBTX) *Store {
	return &Store{
		db:    db,
		books: NewBookRepository(conn),
		users: NewUserRepository(conn),
		loans: NewLoanRepository(conn),
	}
}

func (s *Store) Books() repository.BookRepository { return s.books }
func (s *Store) Users() repository.UserRepository { return s.users }
func (s *Store) Loans() repository.LoanRepository { return s.loans }

// WithTx runs fn against a transaction-bound Store. A Store that is already
// transactional runs fn inline.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, newStore(nil, tx))
	})
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
