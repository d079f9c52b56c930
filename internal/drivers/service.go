package drivers

import (
	"context"
	"fmt"
	"strings"

	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
	"gorm.io/gorm"
)

const defaultEarningPerBagCents = 50

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers driver profiles and the earnings/payouts balance.
type Service interface {
	FindByID(ctx context.Context, id uint) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Driver, error)
	EnsureProfile(ctx context.Context, userID uint) (*models.Driver, error)
	UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.Driver, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[models.Driver], error)
	CreateEarning(ctx context.Context, tx *gorm.DB, driverID, collectionID uint, bagCount int) (*models.DriverEarning, bool, error)
	Balance(ctx context.Context, driverID uint) (int64, error)
	Summary(ctx context.Context, driverID uint) (Summary, error)
	CreatePayout(ctx context.Context, driverID uint, amountCents int64, note string) (*models.DriverPayout, error)
	ListEarnings(ctx context.Context, driverID uint, params pagination.Params) (pagination.Page[models.DriverEarning], error)
	ListPayouts(ctx context.Context, driverID uint, params pagination.Params) (pagination.Page[models.DriverPayout], error)
}

// Summary splits a driver's balance into its two sums.
type Summary struct {
	EarnedCents  int64 `json:"earnedCents"`
	PaidCents    int64 `json:"paidCents"`
	BalanceCents int64 `json:"balanceCents"`
}

// UpdateProfileInput patches the editable profile fields; nil leaves a field alone.
type UpdateProfileInput struct {
	VehicleType  *string `json:"vehicleType" validate:"omitempty,max=50"`
	VehiclePlate *string `json:"vehiclePlate" validate:"omitempty,max=20"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	IsAvailable  *bool   `json:"isAvailable"`
	Zone         *string `json:"zone" validate:"omitempty,max=64"`
}

// ServiceParams wires the driver service.
type ServiceParams struct {
	Repo               *Repository
	DB                 txRunner
	EarningPerBagCents int64
}

type service struct {
	repo       *Repository
	db         txRunner
	perBagRate int64
}

// NewService builds the driver service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("driver repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	rate := params.EarningPerBagCents
	if rate <= 0 {
		rate = defaultEarningPerBagCents
	}
	return &service{repo: params.Repo, db: params.DB, perBagRate: rate}, nil
}

func (s *service) FindByID(ctx context.Context, id uint) (*models.Driver, error) {
	driver, err := s.repo.FindByID(ctx, id)
	return driver, notFound(err, "driver not found")
}

func (s *service) GetByUserID(ctx context.Context, userID uint) (*models.Driver, error) {
	driver, err := s.repo.FindByUserID(ctx, userID)
	return driver, notFound(err, "driver profile not found")
}

func (s *service) EnsureProfile(ctx context.Context, userID uint) (*models.Driver, error) {
	driver, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return driver, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver profile")
	}
	driver = &models.Driver{UserID: userID, IsAvailable: true}
	if err := s.repo.Create(ctx, driver); err != nil {
		if db.IsUniqueViolation(err, "") {
			return s.GetByUserID(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create driver profile")
	}
	return driver, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.Driver, error) {
	driver, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.VehicleType != nil {
		driver.VehicleType = trimmedOrNil(*input.VehicleType)
	}
	if input.VehiclePlate != nil {
		driver.VehiclePlate = trimmedOrNil(strings.ToUpper(*input.VehiclePlate))
	}
	if input.Phone != nil {
		driver.Phone = trimmedOrNil(*input.Phone)
	}
	if input.Zone != nil {
		driver.Zone = trimmedOrNil(*input.Zone)
	}
	if input.IsAvailable != nil {
		driver.IsAvailable = *input.IsAvailable
	}
	if err := s.repo.Save(ctx, driver); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver profile")
	}
	return driver, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Driver], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.List(ctx, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[models.Driver]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}
	return pagination.NewPage(rows, total, params), nil
}

// CreateEarning records bagCount × rate for collectionID once. created is
// false when the collection already has an earning.
func (s *service) CreateEarning(ctx context.Context, tx *gorm.DB, driverID, collectionID uint, bagCount int) (*models.DriverEarning, bool, error) {
	if bagCount < 1 {
		bagCount = 1
	}
	repo := s.repo.WithTx(tx)
	existing, err := repo.EarningForCollection(ctx, collectionID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing earning")
	}
	if existing != nil {
		return existing, false, nil
	}

	earning := &models.DriverEarning{
		DriverID:     driverID,
		CollectionID: collectionID,
		AmountCents:  int64(bagCount) * s.perBagRate,
	}
	inserted, err := repo.InsertEarning(ctx, earning)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert earning")
	}
	if !inserted {
		existing, err := repo.EarningForCollection(ctx, collectionID)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload earning")
		}
		return existing, false, nil
	}
	return earning, true, nil
}

func (s *service) Balance(ctx context.Context, driverID uint) (int64, error) {
	summary, err := s.Summary(ctx, driverID)
	return summary.BalanceCents, err
}

func (s *service) Summary(ctx context.Context, driverID uint) (Summary, error) {
	return summarize(ctx, s.repo, driverID)
}

func summarize(ctx context.Context, repo *Repository, driverID uint) (Summary, error) {
	earned, err := repo.SumEarnings(ctx, driverID)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum earnings")
	}
	paid, err := repo.SumPayouts(ctx, driverID)
	if err != nil {
		return Summary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum payouts")
	}
	return Summary{EarnedCents: earned, PaidCents: paid, BalanceCents: earned - paid}, nil
}

// CreatePayout never takes the balance below zero; the driver row lock
// serializes concurrent payouts.
func (s *service) CreatePayout(ctx context.Context, driverID uint, amountCents int64, note string) (*models.DriverPayout, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}

	var payout *models.DriverPayout
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockByID(ctx, driverID); err != nil {
			return notFound(err, "driver not found")
		}
		summary, err := summarize(ctx, repo, driverID)
		if err != nil {
			return err
		}
		if amountCents > summary.BalanceCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "payout exceeds driver balance").
				WithDetails(map[string]any{"balanceCents": summary.BalanceCents})
		}
		payout = &models.DriverPayout{
			DriverID:    driverID,
			AmountCents: amountCents,
			Note:        trimmedOrNil(note),
		}
		if err := repo.InsertPayout(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert payout")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *service) ListEarnings(ctx context.Context, driverID uint, params pagination.Params) (pagination.Page[models.DriverEarning], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.ListEarnings(ctx, driverID, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[models.DriverEarning]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list earnings")
	}
	return pagination.NewPage(rows, total, params), nil
}

func (s *service) ListPayouts(ctx context.Context, driverID uint, params pagination.Params) (pagination.Page[models.DriverPayout], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.ListPayouts(ctx, driverID, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[models.DriverPayout]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return pagination.NewPage(rows, total, params), nil
}

func notFound(err error, msg string) error {
	if err == nil {
		return nil
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
}

func trimmedOrNil(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
