package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	pkgerrors "github.com/greencredits/greencredits-backend/pkg/errors"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/money"
	"github.com/greencredits/greencredits-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service is the append-only wallet ledger. Balances are always recomputed
// from entries; nothing stores a running total.
type Service interface {
	Balance(ctx context.Context, userID uint) (Balance, error)
	History(ctx context.Context, userID uint, params pagination.Params) (pagination.Page[models.WalletTransaction], error)
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletTransaction, error)
	CreditForCollection(ctx context.Context, tx *gorm.DB, input CollectionCredit) (*models.WalletTransaction, bool, error)
	Donate(ctx context.Context, userID uint, amountCents int64, charity enums.Charity) (*DebitResult, error)
	Redeem(ctx context.Context, userID uint, amountCents int64, note string) (*DebitResult, error)
	ManualAdjustment(ctx context.Context, userID uint, amountCents int64, note string) (*models.WalletTransaction, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Balance is the recomputed wallet state.
type Balance struct {
	Cents       int64     `json:"balanceCents"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// AppendInput describes one raw ledger entry.
type AppendInput struct {
	UserID       uint
	Kind         enums.WalletTxKind
	AmountCents  int64
	Note         string
	CollectionID *uint
	ProofRef     *string
}

// CollectionCredit carries what a completed collection needs to credit or donate.
type CollectionCredit struct {
	UserID       uint
	CollectionID uint
	AmountCents  int64
	Preference   enums.VoucherPreference
	CharityID    *enums.Charity
	DriverID     *uint
	ProofURL     *string
}

// DebitResult is returned by Donate and Redeem.
type DebitResult struct {
	Entry        *models.WalletTransaction `json:"entry"`
	ProofRef     string                    `json:"proofRef"`
	BalanceCents int64                     `json:"balanceCents"`
}

// ServiceParams wires the ledger service.
type ServiceParams struct {
	Repo      Repository
	DB        txRunner
	Users     userLookup
	Publisher events.Publisher
	Now       func() time.Time
}

type service struct {
	repo      Repository
	db        txRunner
	users     userLookup
	publisher events.Publisher
	now       func() time.Time
}

// NewService wires a ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
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
	return &service{
		repo:      params.Repo,
		db:        params.DB,
		users:     params.Users,
		publisher: params.Publisher,
		now:       now,
	}, nil
}

func (s *service) Balance(ctx context.Context, userID uint) (Balance, error) {
	sum, err := s.repo.Sum(ctx, userID)
	if err != nil {
		return Balance{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet entries")
	}
	last, err := s.repo.LastEntryAt(ctx, userID)
	if err != nil {
		return Balance{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read last wallet entry")
	}
	out := Balance{Cents: sum, LastUpdated: time.Unix(0, 0).UTC()}
	if last != nil {
		out.LastUpdated = last.UTC()
	}
	return out, nil
}

func (s *service) History(ctx context.Context, userID uint, params pagination.Params) (pagination.Page[models.WalletTransaction], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.List(ctx, userID, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[models.WalletTransaction]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet entries")
	}
	return pagination.NewPage(rows, total, params), nil
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletTransaction, error) {
	if input.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid ledger kind %q", input.Kind)
	}
	if input.AmountCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-zero")
	}

	entry := &models.WalletTransaction{
		UserID:       input.UserID,
		Ts:           s.now().UTC(),
		Kind:         input.Kind,
		AmountCents:  input.AmountCents,
		CollectionID: input.CollectionID,
		ProofRef:     input.ProofRef,
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		note = truncate(note, maxNoteLength)
		entry.Note = &note
	}

	inserted, err := s.repo.WithTx(tx).Create(ctx, entry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append wallet entry")
	}
	if !inserted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "ledger entry already exists")
	}
	return entry, nil
}

// CreditForCollection writes the single credit or donation entry for a
// completed collection. created is false when the collection was already
// credited, in which case the existing entry is returned.
func (s *service) CreditForCollection(ctx context.Context, tx *gorm.DB, input CollectionCredit) (*models.WalletTransaction, bool, error) {
	if input.CollectionID == 0 || input.UserID == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "collection and user are required")
	}
	if input.AmountCents <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "voucher amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.FindCollectionCredit(ctx, input.UserID, input.CollectionID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing credit")
	}
	if existing != nil {
		return existing, false, nil
	}

	kind := enums.WalletTxKindCollectionCredit
	note := creditNote(input.CollectionID, input.AmountCents, input.DriverID, input.ProofURL)
	if input.Preference == enums.VoucherPreferenceDonate {
		kind = enums.WalletTxKindDonation
		note = donationNote(input.CollectionID, input.AmountCents, input.CharityID)
	}

	collectionID := input.CollectionID
	entry := &models.WalletTransaction{
		UserID:       input.UserID,
		Ts:           s.now().UTC(),
		Kind:         kind,
		AmountCents:  input.AmountCents,
		Note:         &note,
		CollectionID: &collectionID,
	}
	inserted, err := repo.Create(ctx, entry)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert collection credit")
	}
	if !inserted {
		existing, err := repo.FindCollectionCredit(ctx, input.UserID, input.CollectionID)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload existing credit")
		}
		return existing, false, nil
	}
	return entry, true, nil
}

func (s *service) Donate(ctx context.Context, userID uint, amountCents int64, charity enums.Charity) (*DebitResult, error) {
	if !charity.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown charity %q", charity)
	}
	result, err := s.debit(ctx, userID, enums.WalletTxKindDebitDonation, amountCents, func(ref string) string {
		return debitDonationNote(charity, amountCents, ref)
	})
	if err != nil {
		return nil, err
	}
	s.publishDebit(ctx, enums.EventWalletDebitDonated, userID, amountCents, result, events.Payload{
		"charity_id":   string(charity),
		"charity_name": charity.DisplayName(),
	})
	return result, nil
}

func (s *service) Redeem(ctx context.Context, userID uint, amountCents int64, note string) (*DebitResult, error) {
	result, err := s.debit(ctx, userID, enums.WalletTxKindDebitRedeem, amountCents, func(ref string) string {
		return redeemNote(note, amountCents, ref)
	})
	if err != nil {
		return nil, err
	}
	s.publishDebit(ctx, enums.EventWalletDebitRedeemed, userID, amountCents, result, nil)
	return result, nil
}

func (s *service) ManualAdjustment(ctx context.Context, userID uint, amountCents int64, note string) (*models.WalletTransaction, error) {
	if amountCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment must be non-zero")
	}
	if strings.TrimSpace(note) == "" {
		note = "Manual adjustment"
	}

	var entry *models.WalletTransaction
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if amountCents < 0 {
			if err := repo.LockAccount(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet account")
			}
			balance, err := repo.Sum(ctx, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet entries")
			}
			if -amountCents > balance {
				return pkgerrors.New(pkgerrors.CodeValidation, "adjustment exceeds balance").
					WithDetails(map[string]any{"balanceCents": balance})
			}
		}
		var err error
		entry, err = s.Append(ctx, tx, AppendInput{
			UserID:      userID,
			Kind:        enums.WalletTxKindManualAdjustment,
			AmountCents: amountCents,
			Note:        note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) debit(ctx context.Context, userID uint, kind enums.WalletTxKind, amountCents int64, note func(ref string) string) (*DebitResult, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	prefix, ok := kind.ProofPrefix()
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeInternal, "kind %q is not a debit", kind)
	}

	var result *DebitResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.LockAccount(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock wallet account")
		}
		balance, err := repo.Sum(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet entries")
		}
		if amountCents > balance {
			return pkgerrors.New(pkgerrors.CodeValidation, "insufficient balance").
				WithDetails(map[string]any{"balanceCents": balance, "requestedCents": amountCents})
		}

		year := s.now().UTC().Year()
		seq, err := repo.NextProofValue(ctx, kind, year)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate proof reference")
		}
		ref := fmt.Sprintf("%s-%d-%06d", prefix, year, seq)

		entry, err := s.Append(ctx, tx, AppendInput{
			UserID:      userID,
			Kind:        kind,
			AmountCents: -amountCents,
			Note:        note(ref),
			ProofRef:    &ref,
		})
		if err != nil {
			return err
		}
		result = &DebitResult{Entry: entry, ProofRef: ref, BalanceCents: balance - amountCents}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) publishDebit(ctx context.Context, name enums.EventName, userID uint, amountCents int64, result *DebitResult, extra events.Payload) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return
	}
	payload := events.Payload{
		"user_id":         userID,
		"email":           user.Email,
		"amount_eur":      money.EURFloat(amountCents),
		"proof_ref":       result.ProofRef,
		"new_balance_eur": money.EURFloat(result.BalanceCents),
		"ts":              result.Entry.Ts.Format(time.RFC3339),
	}
	for k, v := range extra {
		payload[k] = v
	}
	s.publisher.Publish(ctx, name, payload)
}
