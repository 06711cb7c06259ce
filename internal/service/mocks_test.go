package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/repository"
	"github.com/tzayo/library-management-system/internal/service"
)

// MockBookRepo
type MockBookRepo struct {
	mock.Mock
}

func (m *MockBookRepo) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}
func (m *MockBookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) GetByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	args := m.Called(ctx, isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Book, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Book), args.Error(1)
}
func (m *MockBookRepo) List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}
func (m *MockBookRepo) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockBookRepo) Update(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}
func (m *MockBookRepo) UpdateInventory(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}
func (m *MockBookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *MockUserRepo) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}
func (m *MockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserRepo) Stats(ctx context.Context) (domain.UserStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.UserStats), args.Error(1)
}

// MockLoanRepo
type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
func (m *MockLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) HasOpenLoan(ctx context.Context, bookID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, bookID, userID)
	return args.Bool(0), args.Error(1)
}
func (m *MockLoanRepo) CountOpenByBook(ctx context.Context, bookID uuid.UUID) (int, error) {
	args := m.Called(ctx, bookID)
	return args.Int(0), args.Error(1)
}
func (m *MockLoanRepo) CountOpenByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockLoanRepo) MarkReturned(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
func (m *MockLoanRepo) List(ctx context.Context, filter domain.LoanFilter, now time.Time) ([]domain.Loan, int, error) {
	args := m.Called(ctx, filter, now)
	return args.Get(0).([]domain.Loan), args.Int(1), args.Error(2)
}
func (m *MockLoanRepo) ListOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) ListStaleOverdue(ctx context.Context, now time.Time) ([]domain.Loan, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) MarkOverdue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}
func (m *MockLoanRepo) ListReminderCandidates(ctx context.Context, cutoff time.Time) ([]domain.Loan, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.Loan), args.Error(1)
}
func (m *MockLoanRepo) MarkReminderSent(ctx context.Context, ids []uuid.UUID, now time.Time) (int, error) {
	args := m.Called(ctx, ids, now)
	return args.Int(0), args.Error(1)
}
func (m *MockLoanRepo) Stats(ctx context.Context, now time.Time, topN int) (domain.LoanStats, error) {
	args := m.Called(ctx, now, topN)
	return args.Get(0).(domain.LoanStats), args.Error(1)
}

// MockStore hands its own repositories to WithTx callbacks and counts
// transactions.
type MockStore struct {
	BookRepo *MockBookRepo
	UserRepo *MockUserRepo
	LoanRepo *MockLoanRepo
	Txs      int
}

func newMockStore() *MockStore {
	return &MockStore{
		BookRepo: new(MockBookRepo),
		UserRepo: new(MockUserRepo),
		LoanRepo: new(MockLoanRepo),
	}
}

func (s *MockStore) Books() repository.BookRepository { return s.BookRepo }
func (s *MockStore) Users() repository.UserRepository { return s.UserRepo }
func (s *MockStore) Loans() repository.LoanRepository { return s.LoanRepo }

func (s *MockStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.Txs++
	return fn(ctx, s)
}

func (s *MockStore) AssertExpectations(t mock.TestingT) {
	s.BookRepo.AssertExpectations(t)
	s.UserRepo.AssertExpectations(t)
	s.LoanRepo.AssertExpectations(t)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendWelcome(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockEmailService) SendLoanReminder(ctx context.Context, user domain.User, item domain.ReminderItem, now time.Time) error {
	args := m.Called(ctx, user, item, now)
	return args.Error(0)
}
func (m *MockEmailService) SendBatchReminder(ctx context.Context, user domain.User, items []domain.ReminderItem, now time.Time) error {
	args := m.Called(ctx, user, items, now)
	return args.Error(0)
}

// MockMailSender records outbound messages.
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(ctx context.Context, msg service.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func testBook(total, available int) *domain.Book {
	return &domain.Book{
		ID:                uuid.New(),
		Title:             "Dune",
		Author:            "Frank Herbert",
		Category:          "Fiction",
		QuantityTotal:     total,
		QuantityAvailable: available,
		CreatedAt:         fixedNow.AddDate(0, -1, 0),
		UpdatedAt:         fixedNow.AddDate(0, -1, 0),
	}
}

func testUser(role domain.UserRole) *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     uuid.NewString()[:8] + "@example.com",
		FullName:  "Test " + string(role),
		Role:      role,
		IsActive:  true,
		CreatedAt: fixedNow.AddDate(-1, 0, 0),
	}
}
