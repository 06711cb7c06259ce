package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/tzayo/library-management-system/internal/domain"
)

const (
	codeUniqueViolation     = pq.ErrorCode("23505")
	codeForeignKeyViolation = pq.ErrorCode("23503")
	codeCheckViolation      = pq.ErrorCode("23514")
)

// constraint names from migrations/00001_init.sql
const (
	constraintUsersEmail   = "users_email_key"
	constraintBooksISBN    = "books_isbn_key"
	constraintOpenLoan     = "loans_one_open_per_book_user"
	constraintLoanBook     = "loans_book_id_fkey"
	constraintLoanUser     = "loans_user_id_fkey"
	constraintLoanOperator = "loans_processed_by_id_fkey"
)

type scanner interface {
	Scan(dest ...any) error
}

func pqError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// translate maps sql.ErrNoRows and constraint violations onto domain kinds.
// Anything else is returned unchanged as an infrastructure error.
func translate(err error, notFound *domain.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	pqErr, ok := pqError(err)
	if !ok {
		return err
	}
	switch pqErr.Code {
	case codeUniqueViolation:
		switch pqErr.Constraint {
		case constraintOpenLoan:
			return domain.ErrDuplicateActiveLoan
		case constraintBooksISBN:
			return domain.NewError(domain.KindConflict, "a book with this ISBN already exists")
		case constraintUsersEmail:
			return domain.NewError(domain.KindConflict, "email is already registered")
		}
		return domain.NewError(domain.KindConflict, "duplicate value violates %s", pqErr.Constraint)
	case codeForeignKeyViolation:
		switch pqErr.Constraint {
		case constraintLoanBook:
			return domain.ErrBookNotFound
		case constraintLoanUser, constraintLoanOperator:
			return domain.ErrUserNotFound
		}
		return domain.NewError(domain.KindConflict, "record is still referenced (%s)", pqErr.Constraint)
	case codeCheckViolation:
		return domain.NewError(domain.KindValidation, "value rejected by %s", pqErr.Constraint)
	}
	return err
}

// translateDelete is translate for DELETE statements. There a foreign-key
// violation means loans still reference the row, not that a parent is missing.
func translateDelete(err error, what string) error {
	if pqErr, ok := pqError(err); ok && pqErr.Code == codeForeignKeyViolation {
		return domain.NewError(domain.KindConflict, "cannot delete %s: it is still referenced by loan records", what)
	}
	return translate(err, nil)
}
