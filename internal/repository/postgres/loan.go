package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tzayo/library-management-system/internal/dbx"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
)

const loanColumns = `id, book_id, user_id, processed_by_id, borrowed_at, due_date, returned_at,
	status, reminder_sent, created_at, updated_at`

type loanRepository struct {
	db dbx.DBTX
}

func NewLoanRepository(db dbx.DBTX) repository.LoanRepository {
	return &loanRepository{db: db}
}

func scanLoan(row scanner) (*domain.Loan, error) {
	var (
		l           domain.Loan
		processedBy uuid.NullUUID
		returnedAt  sql.NullTime
	)
	err := row.Scan(&l.ID, &l.BookID, &l.UserID, &processedBy, &l.BorrowedAt, &l.DueDate, &returnedAt,
		&l.Status, &l.ReminderSent, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if processedBy.Valid {
		l.ProcessedByID = processedBy.UUID
	}
	if returnedAt.Valid {
		t := returnedAt.Time
		l.ReturnedAt = &t
	}
	return &l, nil
}

func collectLoans(rows *sql.Rows) ([]domain.Loan, error) {
	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

func (r *loanRepository) queryLoans(ctx context.Context, query string, args ...any) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoans(rows)
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	logger.EnterMethod("loanRepository.Create", "bookID", l.BookID, "userID", l.UserID)

	query := `INSERT INTO loans (id, book_id, user_id, processed_by_id, borrowed_at, due_date, returned_at,
	          status, reminder_sent, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query, l.ID, l.BookID, l.UserID, nullableUUID(l.ProcessedByID), l.BorrowedAt, l.DueDate,
		l.ReturnedAt, l.Status, l.ReminderSent, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		err = translate(err, nil)
		logger.ExitMethodWithError("loanRepository.Create", err, "bookID", l.BookID, "userID", l.UserID)
		return err
	}

	logger.ExitMethod("loanRepository.Create", "loanID", l.ID)
	return nil
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	l, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrLoanNotFound)
	}
	return l, nil
}

func (r *loanRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	l, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrLoanNotFound)
	}
	return l, nil
}

func (r *loanRepository) HasOpenLoan(ctx context.Context, bookID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM loans WHERE book_id = $1 AND user_id = $2 AND returned_at IS NULL)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, bookID, userID).Scan(&exists)
	return exists, err
}

func (r *loanRepository) CountOpenByBook(ctx context.Context, bookID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE book_id = $1 AND returned_at IS NULL`, bookID).Scan(&n)
	return n, err
}

func (r *loanRepository) CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE user_id = $1 AND returned_at IS NULL`, userID).Scan(&n)
	return n, err
}

func (r *loanRepository) MarkReturned(ctx context.Context, l *domain.Loan) error {
	query := `UPDATE loans SET returned_at=$1, status=$2, updated_at=$3 WHERE id=$4 AND returned_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, l.ReturnedAt, domain.LoanStatusReturned, l.UpdatedAt, l.ID)
	if err != nil {
		return err
	}
	return requireRow(res, domain.ErrAlreadyReturned)
}

// statusCondition filters on the status derived from returned_at and due_date
// rather than the stored column, which may lag behind the clock.
func statusCondition(status domain.LoanStatus, nowArg int) string {
	switch status {
	case domain.LoanStatusActive:
		return fmt.Sprintf("returned_at IS NULL AND due_date >= $%d", nowArg)
	case domain.LoanStatusOverdue:
		return fmt.Sprintf("returned_at IS NULL AND due_date < $%d", nowArg)
	case domain.LoanStatusReturned:
		return "returned_at IS NOT NULL"
	}
	return ""
}

func (r *loanRepository) List(ctx context.Context, f domain.LoanFilter, now time.Time) ([]domain.Loan, int, error) {
	logger.EnterMethod("loanRepository.List", "status", f.Status, "page", f.Page.Number)

	var (
		conds []string
		args  []any
	)
	if f.Status == domain.LoanStatusActive || f.Status == domain.LoanStatusOverdue {
		args = append(args, now)
		conds = append(conds, statusCondition(f.Status, len(args)))
	} else if f.Status == domain.LoanStatusReturned {
		conds = append(conds, statusCondition(f.Status, 0))
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.BookID != nil {
		args = append(args, *f.BookID)
		conds = append(conds, fmt.Sprintf("book_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM loans"+where, args...).Scan(&total); err != nil {
		logger.ExitMethodWithError("loanRepository.List", err)
		return nil, 0, err
	}

	page := domain.NewPage(f.Page.Number, f.Page.Size)
	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf("SELECT %s FROM loans%s ORDER BY borrowed_at DESC, id LIMIT $%d OFFSET $%d",
		loanColumns, where, len(args)-1, len(args))

	loans, err := r.queryLoans(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("loanRepository.List", err)
		return nil, 0, err
	}

	logger.ExitMethod("loanRepository.List", "count", len(loans), "total", total)
	return loans, total, nil
}

func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
	          WHERE returned_at IS NULL AND due_date < $1
	          ORDER BY due_date ASC`
	return r.queryLoans(ctx, query, now)
}

func (r *loanRepository) ListStaleOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
	          WHERE returned_at IS NULL AND due_date < $1 AND status <> 'overdue'
	          ORDER BY due_date ASC`
	return r.queryLoans(ctx, query, now)
}

func (r *loanRepository) MarkOverdue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `UPDATE loans SET status = 'overdue', updated_at = $1
	          WHERE id = $2 AND returned_at IS NULL AND due_date < $1 AND status <> 'overdue'`
	res, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *loanRepository) ListReminderCandidates(ctx context.Context, cutoff time.Time) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
	          WHERE returned_at IS NULL AND reminder_sent = FALSE AND due_date <= $1
	          ORDER BY user_id, due_date ASC`
	return r.queryLoans(ctx, query, cutoff)
}

func (r *loanRepository) MarkReminderSent(ctx context.Context, ids []uuid.UUID, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE loans SET reminder_sent = TRUE, updated_at = $1
	          WHERE id = ANY($2) AND reminder_sent = FALSE`
	logger.DatabaseCall("MarkReminderSent", query, "count", len(ids))
	res, err := r.db.ExecContext(ctx, query, now, pq.Array(uuidStrings(ids)))
	if err != nil {
		logger.DatabaseResult("MarkReminderSent", 0, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("MarkReminderSent", n, err)
	return int(n), err
}

func (r *loanRepository) Stats(ctx context.Context, now time.Time, topN int) (domain.LoanStats, error) {
	var s domain.LoanStats
	query := `SELECT COUNT(*) FILTER (WHERE returned_at IS NULL AND due_date >= $1),
	                 COUNT(*) FILTER (WHERE returned_at IS NULL AND due_date < $1),
	                 COUNT(*) FILTER (WHERE returned_at IS NOT NULL),
	                 COUNT(*)
	          FROM loans`
	if err := r.db.QueryRowContext(ctx, query, now).Scan(&s.Active, &s.Overdue, &s.Returned, &s.Total); err != nil {
		return s, err
	}

	popular := `SELECT b.id, b.title, b.author, b.cover_image, b.category, COUNT(l.id) AS loan_count
	            FROM loans l JOIN books b ON b.id = l.book_id
	            GROUP BY b.id, b.title, b.author, b.cover_image, b.category
	            ORDER BY loan_count DESC, b.title ASC
	            LIMIT $1`
	rows, err := r.db.QueryContext(ctx, popular, topN)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	s.PopularBooks = []domain.PopularBook{}
	for rows.Next() {
		var p domain.PopularBook
		if err := rows.Scan(&p.Book.ID, &p.Book.Title, &p.Book.Author, &p.Book.CoverImage, &p.Book.Category, &p.LoanCount); err != nil {
			return s, err
		}
		s.PopularBooks = append(s.PopularBooks, p)
	}
	return s, rows.Err()
}
