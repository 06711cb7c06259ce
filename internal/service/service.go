package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tzayo/library-management-system/internal/domain"
)

// Actor is the authenticated user a request runs on behalf of.
type Actor struct {
	ID   uuid.UUID
	Role domain.UserRole
}

type BorrowRequest struct {
	BookID        uuid.UUID
	UserID        uuid.UUID
	ProcessedByID uuid.UUID
	DueDate       *time.Time
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// ReminderSummary counts loans, not emails: a batch of three that fails adds three to Failed.
type ReminderSummary struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type DailySummary struct {
	ReminderSummary
	MarkedOverdue int `json:"markedOverdue"`
}

type LoanService interface {
	Borrow(ctx context.Context, req BorrowRequest) (*domain.LoanView, error)
	Return(ctx context.Context, loanID uuid.UUID) (*domain.LoanView, error)
	GetLoan(ctx context.Context, viewer Actor, loanID uuid.UUID) (*domain.LoanView, error)
	ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.LoanView, domain.Pagination, error)
	ListMyLoans(ctx context.Context, userID uuid.UUID, status domain.LoanStatus, page domain.Page) ([]domain.LoanView, domain.Pagination, error)
	ListOverdue(ctx context.Context) ([]domain.LoanView, error)
	Stats(ctx context.Context) (*domain.LoanStats, error)
}

type CatalogService interface {
	CreateBook(ctx context.Context, actorID uuid.UUID, in domain.BookInput) (*domain.Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, domain.Pagination, error)
	ListCategories(ctx context.Context) ([]string, error)
	UpdateBook(ctx context.Context, id uuid.UUID, patch domain.BookPatch) (*domain.Book, error)
	AddCopies(ctx context.Context, id uuid.UUID, amount int) (*domain.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, domain.Pagination, error)
	SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) (*domain.User, error)
	ToggleActive(ctx context.Context, actorID, userID uuid.UUID) (*domain.User, error)
	ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role domain.UserRole) (*domain.User, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	Stats(ctx context.Context) (*domain.UserStats, error)
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// Authenticate validates an access token and reloads its user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	CreateUser(ctx context.Context, in RegisterInput, role domain.UserRole) (*domain.User, error)
	ResetPassword(ctx context.Context, email, password string) error
}

type ReminderService interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
	SendDueReminders(ctx context.Context, now time.Time) (ReminderSummary, error)
	RunDaily(ctx context.Context, now time.Time) (DailySummary, error)
}

type EmailService interface {
	SendWelcome(ctx context.Context, user domain.User) error
	SendLoanReminder(ctx context.Context, user domain.User, item domain.ReminderItem, now time.Time) error
	SendBatchReminder(ctx context.Context, user domain.User, items []domain.ReminderItem, now time.Time) error
}
