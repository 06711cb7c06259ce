package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
)

type userService struct {
	store repository.Store
	now   Clock
}

func NewUserService(store repository.Store, clock Clock) UserService {
	if clock == nil {
		clock = time.Now
	}
	return &userService{store: store, now: clock}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, wrapInfra("get user", err)
	}
	return u, nil
}

func (s *userService) ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, domain.Pagination, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, domain.Pagination{}, domain.NewError(domain.KindValidation, "unknown role %q", filter.Role)
	}
	filter.Page = domain.NewPage(filter.Page.Number, filter.Page.Size)
	users, total, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, domain.Pagination{}, wrapInfra("list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, domain.NewPagination(total, filter.Page), nil
}

func (s *userService) SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) (*domain.User, error) {
	logger.EnterMethod("userService.SetActive", "actorID", actorID, "userID", userID, "active", active)

	if actorID == userID && !active {
		err := domain.NewError(domain.KindForbidden, "you cannot deactivate your own account")
		logger.ExitMethodWithError("userService.SetActive", err)
		return nil, err
	}

	var result *domain.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !active && u.IsActive {
			open, err := tx.Loans().CountOpenByUser(ctx, userID)
			if err != nil {
				return err
			}
			if open > 0 {
				return domain.NewError(domain.KindConflict, "cannot deactivate a user with %d open loans", open)
			}
		}
		u.IsActive = active
		u.UpdatedAt = s.now()
		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		result = u
		return nil
	})
	if err != nil {
		err = wrapInfra("set user active", err)
		logger.ExitMethodWithError("userService.SetActive", err, "userID", userID)
		return nil, err
	}

	logger.ExitMethod("userService.SetActive", "userID", userID, "active", active)
	return result, nil
}

func (s *userService) ToggleActive(ctx context.Context, actorID, userID uuid.UUID) (*domain.User, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, wrapInfra("toggle user", err)
	}
	return s.SetActive(ctx, actorID, userID, !u.IsActive)
}

func (s *userService) ChangeRole(ctx context.Context, actorID, userID uuid.UUID, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.NewError(domain.KindValidation, "invalid role %q", role)
	}
	if actorID == userID {
		return nil, domain.NewError(domain.KindForbidden, "you cannot change your own role")
	}

	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, wrapInfra("change role", err)
	}
	u.Role = role
	u.UpdatedAt = s.now()
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, wrapInfra("change role", err)
	}
	logger.Info("User role changed", "actorID", actorID, "userID", userID, "role", role)
	return u, nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return domain.NewError(domain.KindForbidden, "you cannot delete your own account")
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		// The row lock holds off a Borrow for this user until the delete commits.
		if _, err := tx.Users().GetForUpdate(ctx, userID); err != nil {
			return err
		}
		open, err := tx.Loans().CountOpenByUser(ctx, userID)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.NewError(domain.KindConflict, "cannot delete a user with %d open loans", open)
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return wrapInfra("delete user", err)
	}
	logger.Info("User deleted", "actorID", actorID, "userID", userID)
	return nil
}

func (s *userService) Stats(ctx context.Context) (*domain.UserStats, error) {
	stats, err := s.store.Users().Stats(ctx)
	if err != nil {
		return nil, wrapInfra("user stats", err)
	}
	return &stats, nil
}
