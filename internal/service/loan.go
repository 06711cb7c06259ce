package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
)

const popularBooksLimit = 10

// Clock supplies the current time; tests pin it.
type Clock func() time.Time

type LoanSettings struct {
	DefaultDays      int
	OperationTimeout time.Duration
	Clock            Clock
}

type loanService struct {
	store       repository.Store
	defaultDays int
	opTimeout   time.Duration
	now         Clock
}

func NewLoanService(store repository.Store, settings LoanSettings) LoanService {
	s := &loanService{
		store:       store,
		defaultDays: settings.DefaultDays,
		opTimeout:   settings.OperationTimeout,
		now:         settings.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defaultDays <= 0 {
		s.defaultDays = 21
	}
	return s
}

func (s *loanService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// wrapInfra leaves domain errors untouched so callers can match their kind.
func wrapInfra(op string, err error) error {
	if err == nil || domain.IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *loanService) Borrow(ctx context.Context, req BorrowRequest) (*domain.LoanView, error) {
	logger.EnterMethod("loanService.Borrow", "bookID", req.BookID, "userID", req.UserID, "processedBy", req.ProcessedByID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	var view *domain.LoanView
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		book, err := tx.Books().GetForUpdate(ctx, req.BookID)
		if err != nil {
			return err
		}
		if !book.IsAvailable() {
			return domain.ErrNoCopiesAvailable
		}

		borrower, err := tx.Users().GetForUpdate(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !borrower.IsActive {
			return domain.ErrUserInactive
		}

		open, err := tx.Loans().HasOpenLoan(ctx, book.ID, borrower.ID)
		if err != nil {
			return err
		}
		if open {
			return domain.ErrDuplicateActiveLoan
		}

		processor := borrower
		if req.ProcessedByID != borrower.ID {
			if processor, err = tx.Users().GetByID(ctx, req.ProcessedByID); err != nil {
				return err
			}
		}

		loan := domain.NewLoan(book.ID, borrower.ID, processor.ID, req.DueDate, s.defaultDays, now)
		if err := tx.Loans().Create(ctx, &loan); err != nil {
			return err
		}

		updated, err := book.BorrowCopy()
		if err != nil {
			return err
		}
		updated.UpdatedAt = now
		if err := tx.Books().UpdateInventory(ctx, &updated); err != nil {
			return err
		}

		bookSummary := updated.Summary()
		borrowerSummary := borrower.Summary()
		processorSummary := processor.Summary()
		view = &domain.LoanView{Loan: loan, Book: &bookSummary, Borrower: &borrowerSummary, ProcessedBy: &processorSummary}
		return nil
	})
	if err != nil {
		err = wrapInfra("borrow book", err)
		logger.ExitMethodWithError("loanService.Borrow", err, "bookID", req.BookID, "userID", req.UserID)
		return nil, err
	}

	logger.ExitMethod("loanService.Borrow", "loanID", view.ID, "dueDate", view.DueDate)
	return view, nil
}

func (s *loanService) Return(ctx context.Context, loanID uuid.UUID) (*domain.LoanView, error) {
	logger.EnterMethod("loanService.Return", "loanID", loanID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	var view *domain.LoanView
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		loan, err := tx.Loans().GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		closed, err := loan.MarkReturned(now)
		if err != nil {
			return err
		}
		if err := tx.Loans().MarkReturned(ctx, &closed); err != nil {
			return err
		}

		book, err := tx.Books().GetForUpdate(ctx, loan.BookID)
		if err != nil {
			return err
		}
		updated, err := book.ReturnCopy()
		if err != nil {
			return err
		}
		updated.UpdatedAt = now
		if err := tx.Books().UpdateInventory(ctx, &updated); err != nil {
			return err
		}

		borrower, err := tx.Users().GetByID(ctx, loan.UserID)
		if err != nil {
			return err
		}

		bookSummary := updated.Summary()
		borrowerSummary := borrower.Summary()
		view = &domain.LoanView{Loan: closed, Book: &bookSummary, Borrower: &borrowerSummary}
		return nil
	})
	if err != nil {
		err = wrapInfra("return book", err)
		logger.ExitMethodWithError("loanService.Return", err, "loanID", loanID)
		return nil, err
	}

	logger.ExitMethod("loanService.Return", "loanID", loanID)
	return view, nil
}

func (s *loanService) GetLoan(ctx context.Context, viewer Actor, loanID uuid.UUID) (*domain.LoanView, error) {
	loan, err := s.store.Loans().GetByID(ctx, loanID)
	if err != nil {
		return nil, wrapInfra("get loan", err)
	}
	if !viewer.Role.IsStaff() && loan.UserID != viewer.ID {
		return nil, domain.NewError(domain.KindForbidden, "you can only view your own loans")
	}
	views, err := s.assemble(ctx, []domain.Loan{*loan})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *loanService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]domain.LoanView, domain.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Pagination{}, domain.NewError(domain.KindValidation, "unknown loan status %q", filter.Status)
	}
	filter.Page = domain.NewPage(filter.Page.Number, filter.Page.Size)

	loans, total, err := s.store.Loans().List(ctx, filter, s.now())
	if err != nil {
		return nil, domain.Pagination{}, wrapInfra("list loans", err)
	}
	views, err := s.assemble(ctx, loans)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return views, domain.NewPagination(total, filter.Page), nil
}

func (s *loanService) ListMyLoans(ctx context.Context, userID uuid.UUID, status domain.LoanStatus, page domain.Page) ([]domain.LoanView, domain.Pagination, error) {
	return s.ListLoans(ctx, domain.LoanFilter{Status: status, UserID: &userID, Page: page})
}

func (s *loanService) ListOverdue(ctx context.Context) ([]domain.LoanView, error) {
	loans, err := s.store.Loans().ListOverdue(ctx, s.now())
	if err != nil {
		return nil, wrapInfra("list overdue loans", err)
	}
	return s.assemble(ctx, loans)
}

func (s *loanService) Stats(ctx context.Context) (*domain.LoanStats, error) {
	stats, err := s.store.Loans().Stats(ctx, s.now(), popularBooksLimit)
	if err != nil {
		return nil, wrapInfra("loan stats", err)
	}
	return &stats, nil
}

// assemble recomputes status against now and attaches book and user summaries
// fetched by id.
func (s *loanService) assemble(ctx context.Context, loans []domain.Loan) ([]domain.LoanView, error) {
	views := make([]domain.LoanView, 0, len(loans))
	if len(loans) == 0 {
		return views, nil
	}

	bookIDs := make([]uuid.UUID, 0, len(loans))
	userIDs := make([]uuid.UUID, 0, 2*len(loans))
	seenBooks := make(map[uuid.UUID]bool)
	seenUsers := make(map[uuid.UUID]bool)
	for _, l := range loans {
		if !seenBooks[l.BookID] {
			seenBooks[l.BookID] = true
			bookIDs = append(bookIDs, l.BookID)
		}
		for _, id := range []uuid.UUID{l.UserID, l.ProcessedByID} {
			if id != uuid.Nil && !seenUsers[id] {
				seenUsers[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}

	books, err := s.store.Books().ListByIDs(ctx, bookIDs)
	if err != nil {
		return nil, wrapInfra("load loan books", err)
	}
	users, err := s.store.Users().ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, wrapInfra("load loan users", err)
	}

	bookByID := make(map[uuid.UUID]domain.BookSummary, len(books))
	for _, b := range books {
		bookByID[b.ID] = b.Summary()
	}
	userByID := make(map[uuid.UUID]domain.UserSummary, len(users))
	for _, u := range users {
		userByID[u.ID] = u.Summary()
	}

	now := s.now()
	for _, l := range loans {
		v := domain.LoanView{Loan: l.WithDerivedStatus(now)}
		if b, ok := bookByID[l.BookID]; ok {
			v.Book = &b
		}
		if u, ok := userByID[l.UserID]; ok {
			v.Borrower = &u
		}
		if u, ok := userByID[l.ProcessedByID]; ok {
			v.ProcessedBy = &u
		}
		views = append(views, v)
	}
	return views, nil
}
