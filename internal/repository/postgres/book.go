package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tzayo/library-management-system/internal/dbx"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
)

const bookColumns = `id, title, author, isbn, category, description, cover_image,
	quantity_total, quantity_available, added_by_id, created_at, updated_at`

var bookSortColumns = map[string]string{
	"title":      "title",
	"author":     "author",
	"category":   "category",
	"created_at": "created_at",
	"available":  "quantity_available",
}

type bookRepository struct {
	db dbx.DBTX
}

func NewBookRepository(db dbx.DBTX) repository.BookRepository {
	return &bookRepository{db: db}
}

func scanBook(row scanner) (*domain.Book, error) {
	var (
		b       domain.Book
		isbn    sql.NullString
		addedBy uuid.NullUUID
	)
	err := row.Scan(&b.ID, &b.Title, &b.Author, &isbn, &b.Category, &b.Description, &b.CoverImage,
		&b.QuantityTotal, &b.QuantityAvailable, &addedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if isbn.Valid {
		b.ISBN = &isbn.String
	}
	if addedBy.Valid {
		b.AddedByID = addedBy.UUID
	}
	return &b, nil
}

func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func (r *bookRepository) Create(ctx context.Context, b *domain.Book) error {
	logger.EnterMethod("bookRepository.Create", "title", b.Title)

	query := `INSERT INTO books (id, title, author, isbn, category, description, cover_image,
	          quantity_total, quantity_available, added_by_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Title, b.Author, b.ISBN, b.Category, b.Description, b.CoverImage,
		b.QuantityTotal, b.QuantityAvailable, nullableUUID(b.AddedByID), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		err = translate(err, nil)
		logger.ExitMethodWithError("bookRepository.Create", err, "title", b.Title)
		return err
	}

	logger.ExitMethod("bookRepository.Create", "bookID", b.ID)
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	b, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrBookNotFound)
	}
	return b, nil
}

func (r *bookRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1 FOR UPDATE`
	b, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrBookNotFound)
	}
	return b, nil
}

func (r *bookRepository) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1`
	b, err := scanBook(r.db.QueryRowContext(ctx, query, isbn))
	if err != nil {
		return nil, translate(err, domain.ErrBookNotFound)
	}
	return b, nil
}

func (r *bookRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBooks(rows)
}

func collectBooks(rows *sql.Rows) ([]domain.Book, error) {
	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (r *bookRepository) List(ctx context.Context, f domain.BookFilter) ([]domain.Book, int, error) {
	logger.EnterMethod("bookRepository.List", "search", f.Search, "category", f.Category, "page", f.Page.Number)

	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d)", len(args), len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.AvailableOnly {
		conds = append(conds, "quantity_available > 0")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books"+where, args...).Scan(&total); err != nil {
		logger.ExitMethodWithError("bookRepository.List", err)
		return nil, 0, err
	}

	sortCol, ok := bookSortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	dir := "ASC"
	if f.SortDesc || f.SortBy == "" {
		dir = "DESC"
	}
	page := domain.NewPage(f.Page.Number, f.Page.Size)
	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf("SELECT %s FROM books%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d",
		bookColumns, where, sortCol, dir, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("bookRepository.List", err)
		return nil, 0, err
	}
	defer rows.Close()

	books, err := collectBooks(rows)
	if err != nil {
		logger.ExitMethodWithError("bookRepository.List", err)
		return nil, 0, err
	}

	logger.ExitMethod("bookRepository.List", "count", len(books), "total", total)
	return books, total, nil
}

func (r *bookRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM books ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Update writes the descriptive fields together with both counters.
func (r *bookRepository) Update(ctx context.Context, b *domain.Book) error {
	query := `UPDATE books SET title=$1, author=$2, isbn=$3, category=$4, description=$5, cover_image=$6,
	          quantity_total=$7, quantity_available=$8, updated_at=$9 WHERE id=$10`
	res, err := r.db.ExecContext(ctx, query, b.Title, b.Author, b.ISBN, b.Category, b.Description, b.CoverImage,
		b.QuantityTotal, b.QuantityAvailable, b.UpdatedAt, b.ID)
	if err != nil {
		return translate(err, nil)
	}
	return requireRow(res, domain.ErrBookNotFound)
}

func (r *bookRepository) UpdateInventory(ctx context.Context, b *domain.Book) error {
	query := `UPDATE books SET quantity_total=$1, quantity_available=$2, updated_at=$3 WHERE id=$4`
	logger.DatabaseCall("UpdateInventory", query, "bookID", b.ID)
	res, err := r.db.ExecContext(ctx, query, b.QuantityTotal, b.QuantityAvailable, b.UpdatedAt, b.ID)
	if err != nil {
		logger.DatabaseResult("UpdateInventory", 0, err, "bookID", b.ID)
		return translate(err, nil)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UpdateInventory", n, nil, "bookID", b.ID)
	if n == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return translateDelete(err, "book")
	}
	return requireRow(res, domain.ErrBookNotFound)
}

func requireRow(res sql.Result, notFound *domain.Error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
