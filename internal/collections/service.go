package collections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/greencredits/greencredits-backend/internal/ledger"
	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
	"github.com/greencredits/greencredits-backend/pkg/timeofday"
	"gorm.io/gorm"
)

const (
	defaultMaxVoucherCents = 50000
	defaultCollectionType  = "bottles"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type subscriptionGate interface {
	IsActive(ctx context.Context, userID uint) (bool, error)
}

type returnPointLookup interface {
	Get(ctx context.Context, id uint) (*models.ReturnPoint, error)
}

type slotChecker interface {
	HasActive(ctx context.Context, userID uint) (bool, error)
}

type driverService interface {
	FindByID(ctx context.Context, id uint) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Driver, error)
	CreateEarning(ctx context.Context, tx *gorm.DB, driverID, collectionID uint, bagCount int) (*models.DriverEarning, bool, error)
}

type walletLedger interface {
	CreditForCollection(ctx context.Context, tx *gorm.DB, input ledger.CollectionCredit) (*models.WalletTransaction, bool, error)
	Balance(ctx context.Context, userID uint) (ledger.Balance, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Service is the collection state machine.
type Service interface {
	Create(ctx context.Context, userID uint, input CreateInput) (*models.Collection, error)
	Get(ctx context.Context, id uint) (*models.Collection, error)
	AssignDriver(ctx context.Context, collectionID, driverID uint) (*models.Collection, error)
	MarkCollected(ctx context.Context, collectionID, driverUserID uint) (*models.Collection, error)
	MarkCompleted(ctx context.Context, collectionID, driverUserID uint, input MarkCompletedInput) (*models.Collection, error)
	AdminTransitionStatus(ctx context.Context, collectionID uint, input AdminTransitionInput) (*models.Collection, error)
	Cancel(ctx context.Context, collectionID, userID uint) (*models.Collection, error)
	Archive(ctx context.Context, collectionID, userID uint) (*models.Collection, error)
	ListMine(ctx context.Context, userID uint, status *enums.CollectionStatus, params pagination.Params) (pagination.Page[models.Collection], error)
	ListForDriver(ctx context.Context, driverUserID uint, status *enums.CollectionStatus) ([]models.Collection, error)
	ListAll(ctx context.Context, filter AdminFilter, params pagination.Params) (pagination.Page[models.Collection], error)
	ListUnassigned(ctx context.Context, params pagination.Params) (pagination.Page[models.Collection], error)
}

// CreateInput is a user's booking request.
type CreateInput struct {
	ScheduledAt       time.Time
	ReturnPointID     uint
	BagCount          int
	Notes             *string
	PickupAddress     *string
	VoucherPreference enums.VoucherPreference
	CharityID         *enums.Charity
	CollectionType    string
}

// MarkCompletedInput is what the driver reports at drop-off.
type MarkCompletedInput struct {
	ProofURL           *string
	VoucherAmountCents int64
}

// AdminTransitionInput drives an admin status change.
type AdminTransitionInput struct {
	Status             enums.CollectionStatus
	DriverID           *uint
	VoucherAmountCents *int64
}

// AdminFilter narrows the admin listing.
type AdminFilter struct {
	UserID *uint
	Status *enums.CollectionStatus
}

// ServiceParams wires the collection service.
type ServiceParams struct {
	Repo            *Repository
	DB              txRunner
	Subscriptions   subscriptionGate
	ReturnPoints    returnPointLookup
	Slots           slotChecker
	Drivers         driverService
	Ledger          walletLedger
	Users           userLookup
	Publisher       events.Publisher
	Window          timeofday.Window
	MaxVoucherCents int64
	Now             func() time.Time
}

type service struct {
	repo          *Repository
	db            txRunner
	subscriptions subscriptionGate
	returnPoints  returnPointLookup
	slots         slotChecker
	drivers       driverService
	ledger        walletLedger
	users         userLookup
	publisher     events.Publisher
	window        timeofday.Window
	maxVoucher    int64
	now           func() time.Time
}

// NewService validates and wires dependencies.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("collection repository required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Subscriptions == nil:
		return nil, fmt.Errorf("subscription gate required")
	case params.ReturnPoints == nil:
		return nil, fmt.Errorf("return point lookup required")
	case params.Slots == nil:
		return nil, fmt.Errorf("slot checker required")
	case params.Drivers == nil:
		return nil, fmt.Errorf("driver service required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger required")
	case params.Users == nil:
		return nil, fmt.Errorf("user lookup required")
	case params.Publisher == nil:
		return nil, fmt.Errorf("event publisher required")
	}
	window := params.Window
	if window == (timeofday.Window{}) {
		window = timeofday.DefaultWindow
	}
	maxVoucher := params.MaxVoucherCents
	if maxVoucher <= 0 {
		maxVoucher = defaultMaxVoucherCents
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:          params.Repo,
		db:            params.DB,
		subscriptions: params.Subscriptions,
		returnPoints:  params.ReturnPoints,
		slots:         params.Slots,
		drivers:       params.Drivers,
		ledger:        params.Ledger,
		users:         params.Users,
		publisher:     params.Publisher,
		window:        window,
		maxVoucher:    maxVoucher,
		now:           now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uint, input CreateInput) (*models.Collection, error) {
	active, err := s.subscriptions.IsActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "an active subscription is required to book collections")
	}
	if input.ScheduledAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduledAt is required")
	}
	if input.ScheduledAt.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduledAt must be in the future")
	}
	if !s.window.ContainsTime(input.ScheduledAt) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "collections can only be booked between %s", s.window)
	}
	point, err := s.returnPoints.Get(ctx, input.ReturnPointID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "returnPointId does not reference an existing return point")
		}
		return nil, err
	}
	hasSlot, err := s.slots.HasActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check recurring slot")
	}
	if hasSlot {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you have an active recurring slot; pause it to book a one-off collection")
	}

	collection, err := s.buildCollection(userID, input)
	if err != nil {
		return nil, err
	}

	weekStart, weekEnd := isoWeekBounds(input.ScheduledAt)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockOwner(ctx, userID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user")
		}
		count, err := repo.CountOneOffInRange(ctx, userID, weekStart, weekEnd)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check weekly limit")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "only one collection per week is allowed").
				WithDetails(map[string]any{"weekStart": weekStart.Format(time.DateOnly)})
		}
		if err := repo.Create(ctx, collection); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create collection")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, enums.EventCollectionScheduled, collection.UserID, events.Payload{
		"collection_id":     collection.ID,
		"scheduled_at":      collection.ScheduledAt.Format(time.RFC3339),
		"return_point_name": point.Name,
	})
	return collection, nil
}

func (s *service) buildCollection(userID uint, input CreateInput) (*models.Collection, error) {
	bagCount := input.BagCount
	if bagCount == 0 {
		bagCount = 1
	}
	if bagCount < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bagCount must be at least 1")
	}
	preference := input.VoucherPreference
	if preference == "" {
		preference = enums.VoucherPreferenceWallet
	}
	if !preference.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid voucher preference %q", preference)
	}
	var charity *enums.Charity
	if preference == enums.VoucherPreferenceDonate {
		if input.CharityID == nil || !input.CharityID.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a known charityId is required to donate")
		}
		c := *input.CharityID
		charity = &c
	}
	collectionType := strings.TrimSpace(input.CollectionType)
	if collectionType == "" {
		collectionType = defaultCollectionType
	}
	return &models.Collection{
		UserID:            userID,
		ReturnPointID:     input.ReturnPointID,
		ScheduledAt:       input.ScheduledAt.UTC(),
		Status:            enums.CollectionStatusScheduled,
		BagCount:          bagCount,
		Notes:             input.Notes,
		PickupAddress:     input.PickupAddress,
		VoucherPreference: preference,
		CharityID:         charity,
		CollectionType:    collectionType,
	}, nil
}

// isoWeekBounds returns Monday 00:00 of t's ISO week and the following Monday,
// both in t's own location.
func isoWeekBounds(t time.Time) (time.Time, time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	start := time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 7)
}

func (s *service) Get(ctx context.Context, id uint) (*models.Collection, error) {
	collection, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return collection, nil
}

func (s *service) AssignDriver(ctx context.Context, collectionID, driverID uint) (*models.Collection, error) {
	if _, err := s.drivers.FindByID(ctx, driverID); err != nil {
		return nil, err
	}

	var collection *models.Collection
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		collection, err = repo.LockByID(ctx, collectionID)
		if err != nil {
			return lookupError(err)
		}
		if collection.Status.IsTerminal() {
			return stateConflict(collection.Status, enums.CollectionStatusAssigned)
		}
		collection.DriverID = &driverID
		if collection.Status == enums.CollectionStatusScheduled {
			collection.Status = enums.CollectionStatusAssigned
		}
		if err := repo.Save(ctx, collection); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign driver")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *service) MarkCollected(ctx context.Context, collectionID, driverUserID uint) (*models.Collection, error) {
	driver, err := s.drivers.GetByUserID(ctx, driverUserID)
	if err != nil {
		return nil, err
	}

	var collection *models.Collection
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		collection, err = repo.LockByID(ctx, collectionID)
		if err != nil {
			return lookupError(err)
		}
		if !collection.IsAssignedTo(driver.ID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "collection not assigned to you")
		}
		if collection.Status != enums.CollectionStatusAssigned {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot mark as collected: current status is '%s'", collection.Status)
		}
		return s.applyCollected(ctx, tx, collection)
	})
	if err != nil {
		return nil, err
	}
	s.publishCollected(ctx, collection, driver)
	return collection, nil
}

func (s *service) applyCollected(ctx context.Context, tx *gorm.DB, collection *models.Collection) error {
	if collection.DriverID != nil {
		if _, _, err := s.drivers.CreateEarning(ctx, tx, *collection.DriverID, collection.ID, collection.BagCount); err != nil {
			return err
		}
	}
	collection.Status = enums.CollectionStatusCollected
	if err := s.repo.WithTx(tx).Save(ctx, collection); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark collected")
	}
	return nil
}

func (s *service) MarkCompleted(ctx context.Context, collectionID, driverUserID uint, input MarkCompletedInput) (*models.Collection, error) {
	driver, err := s.drivers.GetByUserID(ctx, driverUserID)
	if err != nil {
		return nil, err
	}

	var (
		collection *models.Collection
		credited   bool
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		collection, err = repo.LockByID(ctx, collectionID)
		if err != nil {
			return lookupError(err)
		}
		if !collection.IsAssignedTo(driver.ID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "collection not assigned to you")
		}
		if collection.Status != enums.CollectionStatusCollected {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot mark as completed: current status is '%s'", collection.Status)
		}
		if err := s.validateVoucher(input.VoucherAmountCents); err != nil {
			return err
		}
		if input.ProofURL != nil && strings.TrimSpace(*input.ProofURL) != "" {
			proof := strings.TrimSpace(*input.ProofURL)
			collection.ProofURL = &proof
		}
		credited, err = s.applyCompleted(ctx, tx, collection, input.VoucherAmountCents)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishCompleted(ctx, collection, credited)
	return collection, nil
}

func (s *service) validateVoucher(amount int64) error {
	if amount <= 0 || amount > s.maxVoucher {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "voucher amount must be > 0 and <= %d cents", s.maxVoucher)
	}
	return nil
}

// applyCompleted sets the voucher, advances to completed and writes the
// ledger entry. created reports whether a new credit or donation was written.
func (s *service) applyCompleted(ctx context.Context, tx *gorm.DB, collection *models.Collection, amount int64) (bool, error) {
	collection.VoucherAmountCents = &amount
	collection.Status = enums.CollectionStatusCompleted
	if err := s.repo.WithTx(tx).Save(ctx, collection); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark completed")
	}
	_, created, err := s.ledger.CreditForCollection(ctx, tx, ledger.CollectionCredit{
		UserID:       collection.UserID,
		CollectionID: collection.ID,
		AmountCents:  amount,
		Preference:   collection.VoucherPreference,
		CharityID:    collection.CharityID,
		DriverID:     collection.DriverID,
		ProofURL:     collection.ProofURL,
	})
	return created, err
}

func (s *service) AdminTransitionStatus(ctx context.Context, collectionID uint, input AdminTransitionInput) (*models.Collection, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", input.Status)
	}
	if input.DriverID != nil {
		if _, err := s.drivers.FindByID(ctx, *input.DriverID); err != nil {
			return nil, err
		}
	}

	var (
		collection *models.Collection
		credited   bool
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		collection, err = repo.LockByID(ctx, collectionID)
		if err != nil {
			return lookupError(err)
		}
		if !collection.Status.CanTransitionTo(input.Status) {
			return stateConflict(collection.Status, input.Status)
		}

		switch input.Status {
		case enums.CollectionStatusAssigned:
			if input.DriverID != nil {
				collection.DriverID = input.DriverID
			}
			if collection.DriverID == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "driverId is required to assign")
			}
			collection.Status = input.Status
			return saveOrWrap(ctx, repo, collection)
		case enums.CollectionStatusCollected:
			if input.DriverID != nil {
				collection.DriverID = input.DriverID
			}
			return s.applyCollected(ctx, tx, collection)
		case enums.CollectionStatusCompleted:
			amount := collection.VoucherAmountCents
			if input.VoucherAmountCents != nil {
				amount = input.VoucherAmountCents
			}
			if amount == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "voucherAmountCents is required to complete")
			}
			if err := s.validateVoucher(*amount); err != nil {
				return err
			}
			credited, err = s.applyCompleted(ctx, tx, collection, *amount)
			return err
		default:
			collection.Status = input.Status
			return saveOrWrap(ctx, repo, collection)
		}
	})
	if err != nil {
		return nil, err
	}

	switch input.Status {
	case enums.CollectionStatusCollected:
		var driver *models.Driver
		if collection.DriverID != nil {
			driver, _ = s.drivers.FindByID(ctx, *collection.DriverID)
		}
		s.publishCollected(ctx, collection, driver)
	case enums.CollectionStatusCompleted:
		s.publishCompleted(ctx, collection, credited)
	}
	return collection, nil
}

func (s *service) Cancel(ctx context.Context, collectionID, userID uint) (*models.Collection, error) {
	var collection *models.Collection
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		collection, err = s.lockOwned(ctx, repo, collectionID, userID)
		if err != nil {
			return err
		}
		if !collection.Status.IsCancelable() {
			return stateConflict(collection.Status, enums.CollectionStatusCanceled)
		}
		collection.Status = enums.CollectionStatusCanceled
		return saveOrWrap(ctx, repo, collection)
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *service) Archive(ctx context.Context, collectionID, userID uint) (*models.Collection, error) {
	var collection *models.Collection
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		collection, err = s.lockOwned(ctx, repo, collectionID, userID)
		if err != nil {
			return err
		}
		if collection.Status != enums.CollectionStatusCanceled {
			return pkgerrors.New(pkgerrors.CodeValidation, "only canceled collections can be archived")
		}
		if collection.Archived {
			return nil
		}
		collection.Archived = true
		return saveOrWrap(ctx, repo, collection)
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// lockOwned hides other users' collections behind NOT_FOUND.
func (s *service) lockOwned(ctx context.Context, repo *Repository, collectionID, userID uint) (*models.Collection, error) {
	collection, err := repo.LockByID(ctx, collectionID)
	if err != nil {
		return nil, lookupError(err)
	}
	if collection.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
	}
	return collection, nil
}

func (s *service) ListMine(ctx context.Context, userID uint, status *enums.CollectionStatus, params pagination.Params) (pagination.Page[models.Collection], error) {
	return s.page(ctx, ListFilter{UserID: &userID, Status: status}, params)
}

func (s *service) ListForDriver(ctx context.Context, driverUserID uint, status *enums.CollectionStatus) ([]models.Collection, error) {
	driver, err := s.drivers.GetByUserID(ctx, driverUserID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return []models.Collection{}, nil
		}
		return nil, err
	}
	rows, _, err := s.repo.List(ctx, ListFilter{DriverID: &driver.ID, Status: status, Ascending: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list driver collections")
	}
	if rows == nil {
		rows = []models.Collection{}
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context, filter AdminFilter, params pagination.Params) (pagination.Page[models.Collection], error) {
	return s.page(ctx, ListFilter{UserID: filter.UserID, Status: filter.Status}, params)
}

func (s *service) ListUnassigned(ctx context.Context, params pagination.Params) (pagination.Page[models.Collection], error) {
	scheduled := enums.CollectionStatusScheduled
	return s.page(ctx, ListFilter{Unassigned: true, Status: &scheduled, Ascending: true}, params)
}

func (s *service) page(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Collection], error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return pagination.Page[models.Collection]{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *filter.Status)
	}
	params = pagination.Normalize(params)
	filter.Offset = params.Offset()
	filter.Limit = params.Limit()
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.Collection]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collections")
	}
	return pagination.NewPage(rows, total, params), nil
}

func saveOrWrap(ctx context.Context, repo *Repository, collection *models.Collection) error {
	if err := repo.Save(ctx, collection); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update collection")
	}
	return nil
}

func lookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
}

func stateConflict(from, to enums.CollectionStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "invalid transition: %s -> %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to, "allowed": from.AllowedTransitions()})
}
