package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tzayo/library-management-system/internal/dbx"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
)

const userColumns = `id, email, password_hash, full_name, phone, role, is_active, created_at, updated_at`

type userRepository struct {
	db dbx.DBTX
}

func NewUserRepository(db dbx.DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	logger.EnterMethod("userRepository.Create", "email", u.Email, "role", u.Role)

	query := `INSERT INTO users (id, email, password_hash, full_name, phone, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		err = translate(err, nil)
		logger.ExitMethodWithError("userRepository.Create", err, "email", u.Email)
		return err
	}

	logger.ExitMethod("userRepository.Create", "userID", u.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error) {
	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := domain.NewPage(f.Page.Number, f.Page.Size)
	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf("SELECT %s FROM users%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		userColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email=$1, full_name=$2, phone=$3, role=$4, is_active=$5, updated_at=$6 WHERE id=$7`
	res, err := r.db.ExecContext(ctx, query, u.Email, u.FullName, u.Phone, u.Role, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		return translate(err, nil)
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateDelete(err, "user")
	}
	return requireRow(res, domain.ErrUserNotFound)
}

func (r *userRepository) Stats(ctx context.Context) (domain.UserStats, error) {
	query := `SELECT COUNT(*),
	                 COUNT(*) FILTER (WHERE is_active),
	                 COUNT(*) FILTER (WHERE NOT is_active),
	                 COUNT(*) FILTER (WHERE role = 'patron'),
	                 COUNT(*) FILTER (WHERE role = 'editor'),
	                 COUNT(*) FILTER (WHERE role = 'administrator')
	          FROM users`
	var s domain.UserStats
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Active, &s.Inactive, &s.Patrons, &s.Editors, &s.Administrators)
	return s, err
}
