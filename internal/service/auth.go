package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/repository"
	"github.com/tzayo/library-management-system/internal/security"
)

var (
	ErrInvalidCredentials = domain.NewError(domain.KindUnauthorized, "invalid email or password")
	ErrAccountDisabled    = domain.NewError(domain.KindForbidden, "account is deactivated")
)

type authService struct {
	users  repository.UserRepository
	tokens security.TokenManager
	email  EmailService
	now    Clock
}

func NewAuthService(users repository.UserRepository, tokens security.TokenManager, email EmailService, clock Clock) AuthService {
	if clock == nil {
		clock = time.Now
	}
	return &authService{users: users, tokens: tokens, email: email, now: clock}
}

func normalizeRegistration(in RegisterInput) (RegisterInput, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		return in, domain.NewError(domain.KindValidation, "a valid email is required")
	}
	if in.FullName == "" {
		return in, domain.NewError(domain.KindValidation, "full name is required")
	}
	if len(in.Password) < security.MinPasswordLength {
		return in, domain.NewError(domain.KindValidation, "password must be at least %d characters", security.MinPasswordLength)
	}
	return in, nil
}

func (s *authService) createUser(ctx context.Context, in RegisterInput, role domain.UserRole) (*domain.User, error) {
	in, err := normalizeRegistration(in)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.NewError(domain.KindValidation, "invalid role %q", role)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, domain.NewError(domain.KindConflict, "email is already registered")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, wrapInfra("check email", err)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, wrapInfra("create user", err)
	}
	return user, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	logger.EnterMethod("authService.Register", "email", in.Email)

	user, err := s.createUser(ctx, in, domain.UserRolePatron)
	if err != nil {
		logger.ExitMethodWithError("authService.Register", err, "email", in.Email)
		return nil, "", err
	}

	// Welcome mail is best effort.
	if err := s.email.SendWelcome(ctx, *user); err != nil {
		logger.Warn("Failed to send welcome email", "userID", user.ID, "error", err)
	}

	token, err := s.tokens.GenerateAccessToken(*user)
	if err != nil {
		return nil, "", err
	}

	logger.ExitMethod("authService.Register", "userID", user.ID)
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", wrapInfra("login", err)
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	token, err := s.tokens.GenerateAccessToken(*user)
	if err != nil {
		return nil, "", err
	}
	logger.Info("User logged in", "userID", user.ID, "role", user.Role)
	return user, token, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, domain.NewError(domain.KindUnauthorized, "%s", err.Error())
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.NewError(domain.KindUnauthorized, "user no longer exists")
	}
	if err != nil {
		return nil, wrapInfra("authenticate", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *authService) CreateUser(ctx context.Context, in RegisterInput, role domain.UserRole) (*domain.User, error) {
	user, err := s.createUser(ctx, in, role)
	if err != nil {
		return nil, err
	}
	logger.Info("User provisioned", "userID", user.ID, "role", role)
	return user, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < security.MinPasswordLength {
		return domain.NewError(domain.KindValidation, "password must be at least %d characters", security.MinPasswordLength)
	}
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return wrapInfra("reset password", err)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return wrapInfra("reset password", err)
	}
	logger.Info("Password reset", "userID", user.ID)
	return nil
}
