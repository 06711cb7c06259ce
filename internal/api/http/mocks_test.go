package http_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/service"
)

// MockAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*domain.User, string, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}
func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockAuthService) CreateUser(ctx context.Context, in service.RegisterInput, role domain.UserRole) (*domain.User, error) {
	args := m.Called(ctx, in, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockAuthService) ResetPassword(ctx context.Context, email, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

// MockCatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateBook(ctx context.Context, actorID uuid.UUID, in domain.BookInput) (*domain.Book, error) {
	args := m.Called(ctx, actorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockCatalogService) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockCatalogService) ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, domain.Pagination, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Book), args.Get(1).(domain.Pagination), args.Error(2)
}
func (m *MockCatalogService) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockCatalogService) UpdateBook(ctx context.Context, id uuid.UUID, patch domain.BookPatch) (*domain.Book, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockCatalogService) AddCopies(ctx context.Context, id uuid.UUID, amount int) (*domain.Book, error) {
	args := m.Called(ctx, id, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockCatalogService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLoanService
type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) Borrow(ctx context.Context, req service.BorrowRequest) (*domain.LoanView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanView), args.Error(1)
}
func (m *MockLoanService) Return(ctx context.Context, loanID uuid.UUID) (*domain.LoanView, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanView), args.Error(1)
}
func (m *MockLoanService) GetLoan(ctx context.Context, viewer service.Actor, loanID uuid.UUID) (*domain.LoanView, error) {
	args := m.Called(ctx, viewer, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanView), args.Error(1)
}
func (m *MockLoanService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.LoanView, domain.Pagination, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.LoanView), args.Get(1).(domain.Pagination), args.Error(2)
}
func (m *MockLoanService) ListMyLoans(ctx context.Context, userID uuid.UUID, status domain.LoanStatus, page domain.Page) ([]domain.LoanView, domain.Pagination, error) {
	args := m.Called(ctx, userID, status, page)
	return args.Get(0).([]domain.LoanView), args.Get(1).(domain.Pagination), args.Error(2)
}
func (m *MockLoanService) ListOverdue(ctx context.Context) ([]domain.LoanView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LoanView), args.Error(1)
}
func (m *MockLoanService) Stats(ctx context.Context) (*domain.LoanStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanStats), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, domain.Pagination, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.User), args.Get(1).(domain.Pagination), args.Error(2)
}
func (m *MockUserService) SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) (*domain.User, error) {
	args := m.Called(ctx, actorID, userID, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) ToggleActive(ctx context.Context, actorID, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, actorID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role domain.UserRole) (*domain.User, error) {
	args := m.Called(ctx, actorID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	args := m.Called(ctx, actorID, userID)
	return args.Error(0)
}
func (m *MockUserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserStats), args.Error(1)
}

// MockReminderService
type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
func (m *MockReminderService) SendDueReminders(ctx context.Context, now time.Time) (service.ReminderSummary, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(service.ReminderSummary), args.Error(1)
}
func (m *MockReminderService) RunDaily(ctx context.Context, now time.Time) (service.DailySummary, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(service.DailySummary), args.Error(1)
}
