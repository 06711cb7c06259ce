package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
)

type catalogService struct {
	store repository.Store
	now   Clock
}

func NewCatalogService(store repository.Store, clock Clock) CatalogService {
	if clock == nil {
		clock = time.Now
	}
	return &catalogService{store: store, now: clock}
}

func (s *catalogService) CreateBook(ctx context.Context, actorID uuid.UUID, in domain.BookInput) (*domain.Book, error) {
	logger.EnterMethod("catalogService.CreateBook", "title", in.Title, "actorID", actorID)

	book, err := domain.NewBook(in, actorID, s.now())
	if err != nil {
		logger.ExitMethodWithError("catalogService.CreateBook", err)
		return nil, err
	}
	if book.ISBN != nil {
		if err := s.ensureISBNFree(ctx, s.store, *book.ISBN, uuid.Nil); err != nil {
			logger.ExitMethodWithError("catalogService.CreateBook", err, "isbn", *book.ISBN)
			return nil, err
		}
	}
	if err := s.store.Books().Create(ctx, &book); err != nil {
		err = wrapInfra("create book", err)
		logger.ExitMethodWithError("catalogService.CreateBook", err)
		return nil, err
	}

	logger.ExitMethod("catalogService.CreateBook", "bookID", book.ID)
	return &book, nil
}

// ensureISBNFree fails with Conflict when another book already carries isbn.
func (s *catalogService) ensureISBNFree(ctx context.Context, store repository.Store, isbn string, self uuid.UUID) error {
	existing, err := store.Books().GetByISBN(ctx, isbn)
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		return nil
	case err != nil:
		return wrapInfra("check isbn", err)
	case existing.ID != self:
		return domain.NewError(domain.KindConflict, "a book with ISBN %s already exists", isbn)
	}
	return nil
}

func (s *catalogService) GetBook(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	book, err := s.store.Books().GetByID(ctx, id)
	if err != nil {
		return nil, wrapInfra("get book", err)
	}
	return book, nil
}

func (s *catalogService) ListBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, domain.Pagination, error) {
	filter.Page = domain.NewPage(filter.Page.Number, filter.Page.Size)
	books, total, err := s.store.Books().List(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, wrapInfra("list books", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, domain.NewPagination(total, filter.Page), nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.store.Books().ListCategories(ctx)
	if err != nil {
		return nil, wrapInfra("list categories", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// UpdateBook applies the patch and, when a new total is given, moves the
// available count by the same delta inside the row lock.
func (s *catalogService) UpdateBook(ctx context.Context, id uuid.UUID, patch domain.BookPatch) (*domain.Book, error) {
	logger.EnterMethod("catalogService.UpdateBook", "bookID", id)

	var result *domain.Book
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		book, err := tx.Books().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		updated, err := book.ApplyPatch(patch)
		if err != nil {
			return err
		}
		if updated.ISBN != nil && (book.ISBN == nil || *book.ISBN != *updated.ISBN) {
			if err := s.ensureISBNFree(ctx, tx, *updated.ISBN, book.ID); err != nil {
				return err
			}
		}
		if patch.QuantityTotal != nil {
			if updated, err = updated.SetTotalCopies(*patch.QuantityTotal); err != nil {
				return err
			}
		}
		updated.UpdatedAt = s.now()
		if err := tx.Books().Update(ctx, &updated); err != nil {
			return err
		}
		result = &updated
		return nil
	})
	if err != nil {
		err = wrapInfra("update book", err)
		logger.ExitMethodWithError("catalogService.UpdateBook", err, "bookID", id)
		return nil, err
	}

	logger.ExitMethod("catalogService.UpdateBook", "bookID", id, "total", result.QuantityTotal, "available", result.QuantityAvailable)
	return result, nil
}

func (s *catalogService) AddCopies(ctx context.Context, id uuid.UUID, amount int) (*domain.Book, error) {
	logger.EnterMethod("catalogService.AddCopies", "bookID", id, "amount", amount)

	var result *domain.Book
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		book, err := tx.Books().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		updated, err := book.IncreaseCopies(amount)
		if err != nil {
			return err
		}
		updated.UpdatedAt = s.now()
		if err := tx.Books().UpdateInventory(ctx, &updated); err != nil {
			return err
		}
		result = &updated
		return nil
	})
	if err != nil {
		err = wrapInfra("add copies", err)
		logger.ExitMethodWithError("catalogService.AddCopies", err, "bookID", id)
		return nil, err
	}

	logger.ExitMethod("catalogService.AddCopies", "bookID", id, "total", result.QuantityTotal)
	return result, nil
}

func (s *catalogService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Books().GetForUpdate(ctx, id); err != nil {
			return err
		}
		open, err := tx.Loans().CountOpenByBook(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.NewError(domain.KindConflict, "cannot delete a book with %d open loans", open)
		}
		return tx.Books().Delete(ctx, id)
	})
	if err != nil {
		return wrapInfra("delete book", err)
	}
	logger.Info("Book deleted", "bookID", id)
	return nil
}
