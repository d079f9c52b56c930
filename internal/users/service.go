package users

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Service resolves and creates accounts. Identity itself is external; this
// only keeps the rows other modules join against.
type Service struct {
	repo userRepository
}

// NewService wires the users service.
func NewService(repo userRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &Service{repo: repo}, nil
}

// FindByID returns NOT_FOUND when the user is missing.
func (s *Service) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// Create validates and inserts a user; a duplicate email is CONFLICT.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	dto.Email = normalizeEmail(dto.Email)
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if dto.Role != "" && !dto.Role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", dto.Role)
	}

	user, err := s.repo.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

// Ensure returns the user with email, creating it with role when absent.
// Used by the development token route.
func (s *Service) Ensure(ctx context.Context, email string, role enums.Role) (*models.User, error) {
	email = normalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user by email")
	}
	return s.Create(ctx, CreateUserDTO{Email: email, Role: role})
}
