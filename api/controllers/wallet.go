package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greencredits/greencredits-backend/api/responses"
	"github.com/greencredits/greencredits-backend/api/validators"
	"github.com/greencredits/greencredits-backend/internal/ledger"
	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/money"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
)

type walletBalanceResponse struct {
	BalanceCents int64           `json:"balanceCents"`
	BalanceEUR   decimal.Decimal `json:"balanceEur"`
	LastUpdated  time.Time       `json:"lastUpdated"`
}

type walletTransactionResponse struct {
	ID           uint               `json:"id"`
	Ts           time.Time          `json:"ts"`
	Kind         enums.WalletTxKind `json:"kind"`
	AmountCents  int64              `json:"amountCents"`
	AmountEUR    decimal.Decimal    `json:"amountEur"`
	Note         *string            `json:"note,omitempty"`
	CollectionID *uint              `json:"collectionId,omitempty"`
	ProofRef     *string            `json:"proofRef,omitempty"`
}

type walletDebitResponse struct {
	Transaction  walletTransactionResponse `json:"transaction"`
	ProofRef     string                    `json:"proofRef"`
	BalanceCents int64                     `json:"balanceCents"`
}

type donateRequest struct {
	AmountCents int64  `json:"amountCents" validate:"gt=0"`
	Charity     string `json:"charity" validate:"required,max=64"`
}

type redeemRequest struct {
	AmountCents int64  `json:"amountCents" validate:"gt=0"`
	Note        string `json:"note" validate:"omitempty,max=255"`
}

type adjustmentRequest struct {
	UserID      uint   `json:"userId" validate:"required"`
	AmountCents int64  `json:"amountCents"`
	Note        string `json:"note" validate:"omitempty,max=255"`
}

func newWalletTransactionResponse(tx *models.WalletTransaction) walletTransactionResponse {
	return walletTransactionResponse{
		ID:           tx.ID,
		Ts:           tx.Ts,
		Kind:         tx.Kind,
		AmountCents:  tx.AmountCents,
		AmountEUR:    money.EUR(tx.AmountCents),
		Note:         tx.Note,
		CollectionID: tx.CollectionID,
		ProofRef:     tx.ProofRef,
	}
}

func newWalletDebitResponse(result *ledger.DebitResult) walletDebitResponse {
	return walletDebitResponse{
		Transaction:  newWalletTransactionResponse(result.Entry),
		ProofRef:     result.ProofRef,
		BalanceCents: result.BalanceCents,
	}
}

func WalletBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, walletBalanceResponse{
			BalanceCents: balance.Cents,
			BalanceEUR:   money.EUR(balance.Cents),
			LastUpdated:  balance.LastUpdated,
		})
	}
}

// WalletHistory lists ledger entries newest first.
func WalletHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]walletTransactionResponse, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, newWalletTransactionResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, pagination.Page[walletTransactionResponse]{
			Items:    items,
			Total:    page.Total,
			Page:     page.Page,
			PageSize: page.PageSize,
		})
	}
}

func WalletDonate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body donateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Donate(r.Context(), userID, body.AmountCents, enums.Charity(body.Charity))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newWalletDebitResponse(result))
	}
}

func WalletRedeem(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		userID, err := ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body redeemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Redeem(r.Context(), userID, body.AmountCents, body.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newWalletDebitResponse(result))
	}
}

// AdminWalletAdjustment appends a signed manual entry to a user's wallet.
func AdminWalletAdjustment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		var body adjustmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.ManualAdjustment(r.Context(), body.UserID, body.AmountCents, body.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newWalletTransactionResponse(entry))
	}
}
