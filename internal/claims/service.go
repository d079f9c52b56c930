// Package claims handles user disputes and their admin resolution.
package claims

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

const maxDescriptionLength = 2048

type userLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Service files, lists and resolves claims.
type Service interface {
	Create(ctx context.Context, userID uint, input CreateInput) (*models.Claim, error)
	ListMine(ctx context.Context, userID uint) ([]models.Claim, error)
	List(ctx context.Context, status *enums.ClaimStatus, params pagination.Params) (pagination.Page[models.Claim], error)
	Update(ctx context.Context, claimID uint, input UpdateInput) (*models.Claim, error)
}

// CreateInput is a user's claim.
type CreateInput struct {
	Description string  `json:"description" validate:"required,max=2048"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url,max=512"`
}

// UpdateInput is an admin decision. A nil AdminResponse keeps the current one.
type UpdateInput struct {
	Status        enums.ClaimStatus `json:"status" validate:"required"`
	AdminResponse *string           `json:"adminResponse" validate:"omitempty,max=2048"`
}

// ServiceParams wires the claims service.
type ServiceParams struct {
	Repo      *Repository
	Users     userLookup
	Publisher events.Publisher
	Now       func() time.Time
}

type service struct {
	repo      *Repository
	users     userLookup
	publisher events.Publisher
	now       func() time.Time
}

// NewService validates and wires dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("claims repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, users: params.Users, publisher: params.Publisher, now: now}, nil
}

func (s *service) Create(ctx context.Context, userID uint, input CreateInput) (*models.Claim, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if len([]rune(description)) > maxDescriptionLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "description must be at most %d characters", maxDescriptionLength)
	}
	claim := &models.Claim{
		UserID:      userID,
		Description: description,
		ImageURL:    trimmedOrNil(input.ImageURL),
		Status:      enums.ClaimStatusOpen,
	}
	if err := s.repo.Create(ctx, claim); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create claim")
	}
	return claim, nil
}

func (s *service) ListMine(ctx context.Context, userID uint) ([]models.Claim, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claims")
	}
	if rows == nil {
		rows = []models.Claim{}
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, status *enums.ClaimStatus, params pagination.Params) (pagination.Page[models.Claim], error) {
	if status != nil && !status.IsValid() {
		return pagination.Page[models.Claim]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid claim status %q", *status)
	}
	params = pagination.Normalize(params)
	rows, total, err := s.repo.List(ctx, status, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[models.Claim]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claims")
	}
	return pagination.NewPage(rows, total, params), nil
}

func (s *service) Update(ctx context.Context, claimID uint, input UpdateInput) (*models.Claim, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid claim status %q", input.Status)
	}
	claim, err := s.repo.FindByID(ctx, claimID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "claim not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load claim")
	}

	resolvedNow := input.Status == enums.ClaimStatusResolved && claim.Status != enums.ClaimStatusResolved
	claim.Status = input.Status
	if input.AdminResponse != nil {
		claim.AdminResponse = trimmedOrNil(input.AdminResponse)
	}
	if err := s.repo.Save(ctx, claim); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update claim")
	}

	if resolvedNow {
		s.publishResolved(ctx, claim)
	}
	return claim, nil
}

func (s *service) publishResolved(ctx context.Context, claim *models.Claim) {
	user, err := s.users.FindByID(ctx, claim.UserID)
	if err != nil || user == nil {
		return
	}
	response := ""
	if claim.AdminResponse != nil {
		response = *claim.AdminResponse
	}
	s.publisher.Publish(ctx, enums.EventClaimResolved, events.Payload{
		"user_id":        claim.UserID,
		"email":          user.Email,
		"claim_id":       claim.ID,
		"status":         string(claim.Status),
		"admin_response": response,
		"ts":             s.now().UTC().Format(time.RFC3339),
	})
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
