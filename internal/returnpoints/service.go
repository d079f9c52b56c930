package returnpoints

import (
	"context"
	"fmt"

	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

type pointRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ReturnPoint, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]models.ReturnPoint, int64, error)
}

// ListInput carries the public listing query.
type ListInput struct {
	Chain string
	Query string
	Near  *Coordinates
	pagination.Params
}

// Service is the read-only return point directory.
type Service struct {
	repo pointRepository
}

// NewService wires the directory.
func NewService(repo pointRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("return point repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.ReturnPoint, error) {
	point, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return point not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return point")
	}
	return point, nil
}

func (s *Service) Exists(ctx context.Context, id uint) (bool, error) {
	if id == 0 {
		return false, nil
	}
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check return point")
	}
	return ok, nil
}

func (s *Service) List(ctx context.Context, input ListInput) (pagination.Page[models.ReturnPoint], error) {
	params := pagination.Normalize(input.Params)
	if input.Near != nil {
		if input.Near.Lat < -90 || input.Near.Lat > 90 || input.Near.Lng < -180 || input.Near.Lng > 180 {
			return pagination.Page[models.ReturnPoint]{}, pkgerrors.New(pkgerrors.CodeValidation, "near coordinates out of range")
		}
	}
	rows, total, err := s.repo.List(ctx, ListFilter{
		Chain:  input.Chain,
		Query:  input.Query,
		Near:   input.Near,
		Offset: params.Offset(),
		Limit:  params.Limit(),
	})
	if err != nil {
		return pagination.Page[models.ReturnPoint]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list return points")
	}
	return pagination.NewPage(rows, total, params), nil
}
