package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	"github.com/greencredits/greencredits-backend/internal/drivers"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/money"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

type driverResponse struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"userId"`
	VehicleType  *string   `json:"vehicleType,omitempty"`
	VehiclePlate *string   `json:"vehiclePlate,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	IsAvailable  bool      `json:"isAvailable"`
	Zone         *string   `json:"zone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type driverEarningResponse struct {
	ID           uint            `json:"id"`
	CollectionID uint            `json:"collectionId"`
	AmountCents  int64           `json:"amountCents"`
	AmountEUR    decimal.Decimal `json:"amountEur"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type driverPayoutResponse struct {
	ID          uint            `json:"id"`
	DriverID    uint            `json:"driverId"`
	AmountCents int64           `json:"amountCents"`
	AmountEUR   decimal.Decimal `json:"amountEur"`
	Note        *string         `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type payoutRequest struct {
	AmountCents int64  `json:"amountCents" validate:"gt=0"`
	Note        string `json:"note" validate:"omitempty,max=255"`
}

func newDriverResponse(d *models.Driver) driverResponse {
	return driverResponse{
		ID:           d.ID,
		UserID:       d.UserID,
		VehicleType:  d.VehicleType,
		VehiclePlate: d.VehiclePlate,
		Phone:        d.Phone,
		IsAvailable:  d.IsAvailable,
		Zone:         d.Zone,
		CreatedAt:    d.CreatedAt,
	}
}

func newDriverPayoutResponse(p *models.DriverPayout) driverPayoutResponse {
	return driverPayoutResponse{
		ID:          p.ID,
		DriverID:    p.DriverID,
		AmountCents: p.AmountCents,
		AmountEUR:   money.EUR(p.AmountCents),
		Note:        p.Note,
		CreatedAt:   p.CreatedAt,
	}
}

func DriverProfile(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driver, err := svc.EnsureProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDriverResponse(driver))
	}
}

func DriverUpdateProfile(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body drivers.UpdateProfileInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driver, err := svc.UpdateProfile(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newDriverResponse(driver))
	}
}

// DriverSummary reports earned, paid out, and outstanding cents for the caller.
func DriverSummary(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		driver, err := callerDriver(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), driver.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func DriverEarnings(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		driver, err := callerDriver(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListEarnings(r.Context(), driver.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]driverEarningResponse, 0, len(page.Items))
		for _, e := range page.Items {
			items = append(items, driverEarningResponse{
				ID:           e.ID,
				CollectionID: e.CollectionID,
				AmountCents:  e.AmountCents,
				AmountEUR:    money.EUR(e.AmountCents),
				CreatedAt:    e.CreatedAt,
			})
		}
		responses.WriteSuccess(w, pagination.Page[driverEarningResponse]{Items: items, Total: page.Total, Page: page.Page, PageSize: page.PageSize})
	}
}

func DriverPayouts(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		driver, err := callerDriver(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPayouts(r.Context(), driver.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]driverPayoutResponse, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, newDriverPayoutResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, pagination.Page[driverPayoutResponse]{Items: items, Total: page.Total, Page: page.Page, PageSize: page.PageSize})
	}
}

func AdminListDrivers(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]driverResponse, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, newDriverResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, pagination.Page[driverResponse]{Items: items, Total: page.Total, Page: page.Page, PageSize: page.PageSize})
	}
}

func AdminDriverSummary(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		driverID, err := validators.ParsePathUint(r, "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// AdminCreatePayout records a payout capped at the driver's outstanding balance.
func AdminCreatePayout(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}
		driverID, err := validators.ParsePathUint(r, "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body payoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.CreatePayout(r.Context(), driverID, body.AmountCents, body.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newDriverPayoutResponse(payout))
	}
}

func callerDriver(r *http.Request, svc drivers.Service) (*models.Driver, error) {
	userID, err := ActorID(r)
	if err != nil {
		return nil, err
	}
	return svc.GetByUserID(r.Context(), userID)
}
