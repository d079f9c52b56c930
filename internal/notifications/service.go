package notifications

import (
	"context"
	"strings"

	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

// Service defines notification list/read operations.
type Service interface {
	ListMine(ctx context.Context, userID uint, params pagination.Params) (pagination.Page[models.Notification], error)
	ListAll(ctx context.Context, params pagination.Params) (pagination.Page[models.Notification], error)
	MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error)
	Create(ctx context.Context, input CreateInput) (*models.Notification, error)
}

// CreateInput is an admin-authored notification. A nil UserID broadcasts.
type CreateInput struct {
	UserID *uint  `json:"userId"`
	Title  string `json:"title" validate:"required,max=255"`
	Body   string `json:"body" validate:"required"`
}

type service struct {
	repo Repository
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListMine(ctx context.Context, userID uint, params pagination.Params) (pagination.Page[models.Notification], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.ListForUser(ctx, userID, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[models.Notification]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return pagination.NewPage(rows, total, params), nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (pagination.Page[models.Notification], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.ListAll(ctx, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[models.Notification]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return pagination.NewPage(rows, total, params), nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	if notificationID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	notification, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return notification, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Notification, error) {
	title := strings.TrimSpace(input.Title)
	body := strings.TrimSpace(input.Body)
	if title == "" || body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and body are required")
	}
	notification := &models.Notification{UserID: input.UserID, Title: title, Body: body}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return notification, nil
}
