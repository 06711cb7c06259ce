package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/repository"
)

var loanColumnNames = []string{"id", "book_id", "user_id", "processed_by_id", "borrowed_at", "due_date", "returned_at",
	"status", "reminder_sent", "created_at", "updated_at"}

func TestLoanRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLoanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	loan := domain.NewLoan(uuid.New(), uuid.New(), uuid.New(), nil, 21, now)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO loans").
			WithArgs(loan.ID, loan.BookID, loan.UserID, loan.ProcessedByID, loan.BorrowedAt, loan.DueDate,
				nil, domain.LoanStatusActive, false, loan.CreatedAt, loan.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, &loan))
	})

	t.Run("Open loan already exists", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO loans").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "loans_one_open_per_book_user"})

		err := repo.Create(ctx, &loan)
		assert.ErrorIs(t, err, domain.ErrDuplicateActiveLoan)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id, bookID, userID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	returned := now.Add(time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM loans WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(loanColumnNames).
			AddRow(id.String(), bookID.String(), userID.String(), nil, now, now.AddDate(0, 0, 21), returned,
				"returned", true, now, returned))

	l, err := NewLoanRepository(db).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, bookID, l.BookID)
	assert.Equal(t, uuid.Nil, l.ProcessedByID)
	require.NotNil(t, l.ReturnedAt)
	assert.Equal(t, returned, *l.ReturnedAt)
	assert.Equal(t, domain.LoanStatusReturned, l.Status)
	assert.True(t, l.ReminderSent)

	mock.ExpectQuery("SELECT (.+) FROM loans WHERE id = \\$1 FOR UPDATE").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(loanColumnNames))
	_, err = NewLoanRepository(db).GetForUpdate(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_MarkReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLoanRepository(db)
	now := time.Now()
	loan, err := domain.NewLoan(uuid.New(), uuid.New(), uuid.New(), nil, 21, now).MarkReturned(now)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE loans SET returned_at=\\$1, status=\\$2, updated_at=\\$3 WHERE id=\\$4 AND returned_at IS NULL").
		WithArgs(now, domain.LoanStatusReturned, now, loan.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkReturned(context.Background(), &loan))

	mock.ExpectExec("UPDATE loans SET returned_at").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkReturned(context.Background(), &loan), domain.ErrAlreadyReturned)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	userID := uuid.New()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM loans WHERE returned_at IS NULL AND due_date < \\$1 AND user_id = \\$2").
		WithArgs(now, userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT (.+) FROM loans WHERE (.+) ORDER BY borrowed_at DESC, id LIMIT \\$3 OFFSET \\$4").
		WithArgs(now, userID, domain.DefaultPageSize, 0).
		WillReturnRows(sqlmock.NewRows(loanColumnNames))

	loans, total, err := NewLoanRepository(db).List(context.Background(), domain.LoanFilter{
		Status: domain.LoanStatusOverdue,
		UserID: &userID,
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, loans)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoanRepository_SchedulerUpdates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLoanRepository(db)
	ctx := context.Background()
	now := time.Now()
	id := uuid.New()

	t.Run("MarkOverdue changed", func(t *testing.T) {
		mock.ExpectExec("UPDATE loans SET status = 'overdue'").
			WithArgs(now, id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		changed, err := repo.MarkOverdue(ctx, id, now)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("MarkOverdue already consistent", func(t *testing.T) {
		mock.ExpectExec("UPDATE loans SET status = 'overdue'").
			WithArgs(now, id).
			WillReturnResult(sqlmock.NewResult(0, 0))
		changed, err := repo.MarkOverdue(ctx, id, now)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("MarkReminderSent is conditional", func(t *testing.T) {
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		mock.ExpectExec("UPDATE loans SET reminder_sent = TRUE, updated_at = \\$1 WHERE id = ANY\\(\\$2\\) AND reminder_sent = FALSE").
			WithArgs(now, pq.Array(uuidStrings(ids))).
			WillReturnResult(sqlmock.NewResult(0, 2))
		n, err := repo.MarkReminderSent(ctx, ids, now)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("MarkReminderSent empty is a no-op", func(t *testing.T) {
		n, err := repo.MarkReminderSent(ctx, nil, now)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		bookID := uuid.New()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM books WHERE id = \\$1 FOR UPDATE").
			WithArgs(bookID).
			WillReturnRows(sqlmock.NewRows(bookColumnNames).AddRow(bookRow(bookID, 1, 1)...))
		mock.ExpectExec("UPDATE books SET quantity_total").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewStore(db).WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
			b, err := tx.Books().GetForUpdate(ctx, bookID)
			if err != nil {
				return err
			}
			next, err := b.BorrowCopy()
			if err != nil {
				return err
			}
			return tx.Books().UpdateInventory(ctx, &next)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls back on domain error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO loans").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "loans_one_open_per_book_user"})
		mock.ExpectRollback()

		loan := domain.NewLoan(uuid.New(), uuid.New(), uuid.New(), nil, 21, time.Now())
		err = NewStore(db).WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
			return tx.Loans().Create(ctx, &loan)
		})
		assert.True(t, errors.Is(err, domain.ErrDuplicateActiveLoan))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nested WithTx reuses the transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		err = NewStore(db).WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
			return tx.WithTx(ctx, func(ctx context.Context, inner repository.Store) error {
				assert.Same(t, tx, inner)
				return nil
			})
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
