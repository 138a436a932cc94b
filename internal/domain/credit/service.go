package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultExpiryDays applies when neither the caller nor config sets one.
const DefaultExpiryDays = 365

// service implements the Service interface
type service struct {
	store             Store
	companies         CompanyLookup
	publisher         Publisher
	defaultExpiryDays int
	now               func() time.Time
}

// Option customizes the credit service
type Option func(*service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithPublisher emits ledger events after each committed write.
func WithPublisher(p Publisher) Option {
	return func(s *service) { s.publisher = p }
}

// NewService creates a new credit service
func NewService(store Store, companies CompanyLookup, defaultExpiryDays int, opts ...Option) Service {
	if defaultExpiryDays <= 0 {
		defaultExpiryDays = DefaultExpiryDays
	}
	s := &service{
		store:             store,
		companies:         companies,
		defaultExpiryDays: defaultExpiryDays,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignCredits grants credits to a company.
// The grant adds to whatever is stored, expired or not, and the new expiry
// replaces the old one.
func (s *service) AssignCredits(ctx context.Context, companyID uuid.UUID, credits, expiryDays int, adminUserID *uuid.UUID) (*Credit, error) {
	if credits <= 0 {
		return nil, ErrInvalidAmount
	}
	if expiryDays <= 0 {
		expiryDays = s.defaultExpiryDays
	}

	exists, err := s.companies.Exists(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup company: %w", ErrInternal, err)
	}
	if !exists {
		return nil, ErrCompanyNotFound
	}

	now := s.now()
	expiry := now.AddDate(0, 0, expiryDays)
	order := &Order{
		ID:           uuid.New(),
		CompanyID:    companyID,
		Type:         OrderTypeCredit,
		CreditsSpent: credits,
		AdminUserID:  adminUserID,
		CreatedAt:    now,
	}

	var updated *Credit
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		prev, err := tx.GetCredit(ctx, companyID)
		if err != nil {
			return err
		}
		if prev != nil && prev.Balance > 0 && prev.IsExpired(now) {
			log.Warn().
				Str("company_id", companyID.String()).
				Int("stale_balance", prev.Balance).
				Time("expired_at", prev.ExpiryDate).
				Msg("credit grant accumulates onto an expired balance")
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		updated, err = tx.UpsertGrant(ctx, companyID, credits, now, expiry)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("company_id", companyID.String()).
		Int("credits", credits).
		Int("balance", updated.Balance).
		Time("expiry_date", updated.ExpiryDate).
		Msg("credits assigned")

	s.publish(ctx, SubjectGranted, GrantedEvent{
		OrderID:     order.ID,
		CompanyID:   companyID,
		Credits:     credits,
		Balance:     updated.Balance,
		ExpiryDate:  updated.ExpiryDate,
		AdminUserID: adminUserID,
		OccurredAt:  now,
	})

	return updated, nil
}

// GetBalance returns the effective balance. Stored dates are returned as-is
// even when expired; only the balance is clamped.
func (s *service) GetBalance(ctx context.Context, companyID uuid.UUID) (*Balance, error) {
	c, err := s.store.GetCredit(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return balanceOf(c, s.now()), nil
}

func (s *service) CheckSufficient(ctx context.Context, companyID uuid.UUID, required int) (*Sufficiency, error) {
	if required < 0 {
		return nil, ErrInvalidAmount
	}

	b, err := s.GetBalance(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return &Sufficiency{
		Sufficient:     required == 0 || (!b.IsExpired && b.Balance >= required),
		CurrentBalance: b.Balance,
		IsExpired:      b.IsExpired,
	}, nil
}

// DeductAndRecordOrder checks sufficiency, then decrements and records the
// order in one transaction. The decrement is conditional, so a concurrent
// spender that drained the balance after the check makes this call fail
// instead of driving the balance negative.
func (s *service) DeductAndRecordOrder(ctx context.Context, req DeductRequest) (*DeductResult, error) {
	if err := validateDeduct(req); err != nil {
		return nil, err
	}

	suff, err := s.CheckSufficient(ctx, req.CompanyID, req.Credits)
	if err != nil {
		return nil, err
	}
	if !suff.Sufficient {
		if suff.IsExpired {
			return nil, ErrCreditsExpired
		}
		return nil, &InsufficientCreditsError{Required: req.Credits, Available: suff.CurrentBalance}
	}

	var result *DeductResult
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, err = s.deduct(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.PublishSpend(ctx, result)
	return result, nil
}

// DeductTx deducts inside tx. Nothing is published; the caller owns the
// commit and should call PublishSpend after it.
func (s *service) DeductTx(ctx context.Context, tx Tx, req DeductRequest) (*DeductResult, error) {
	if err := validateDeduct(req); err != nil {
		return nil, err
	}
	return s.deduct(ctx, tx, req)
}

func (s *service) deduct(ctx context.Context, tx Tx, req DeductRequest) (*DeductResult, error) {
	now := s.now()

	updated, err := tx.DeductIfSufficient(ctx, req.CompanyID, req.Credits, now)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		current, err := tx.GetCredit(ctx, req.CompanyID)
		if err != nil {
			return nil, err
		}
		b := balanceOf(current, now)
		if b.IsExpired {
			return nil, ErrCreditsExpired
		}
		return nil, &InsufficientCreditsError{Required: req.Credits, Available: b.Balance}
	}

	order := &Order{
		ID:           uuid.New(),
		CompanyID:    req.CompanyID,
		Type:         req.Type,
		CreditsSpent: req.Credits,
		TypeID:       req.TypeID,
		AdminUserID:  req.UserID,
		CreatedAt:    now,
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return nil, err
	}

	return &DeductResult{
		Credit:           updated,
		Order:            order,
		RemainingBalance: updated.Balance,
	}, nil
}

// PublishSpend emits the spend event for a committed deduction.
func (s *service) PublishSpend(ctx context.Context, result *DeductResult) {
	if result == nil || result.Order == nil {
		return
	}

	log.Info().
		Str("company_id", result.Order.CompanyID.String()).
		Str("type", string(result.Order.Type)).
		Str("type_id", result.Order.TypeID).
		Int("credits", result.Order.CreditsSpent).
		Int("remaining", result.RemainingBalance).
		Msg("credits deducted")

	s.publish(ctx, SubjectSpent, SpentEvent{
		OrderID:          result.Order.ID,
		CompanyID:        result.Order.CompanyID,
		Type:             result.Order.Type,
		TypeID:           result.Order.TypeID,
		Credits:          result.Order.CreditsSpent,
		RemainingBalance: result.RemainingBalance,
		OccurredAt:       result.Order.CreatedAt,
	})
}

func (s *service) CleanupExpiredCredits(ctx context.Context) (int64, error) {
	now := s.now()

	count, err := s.store.ExpireBalances(ctx, now)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		log.Info().Int64("count", count).Msg("expired credit balances zeroed")
		s.publish(ctx, SubjectExpired, ExpiredEvent{Count: count, SweptAt: now})
	}
	return count, nil
}

func (s *service) ListOrders(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListOrders(ctx, companyID, Pagination{Limit: limit, Offset: offset})
}

func (s *service) publish(ctx context.Context, subject string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish ledger event")
	}
}

func validateDeduct(req DeductRequest) error {
	if req.Credits <= 0 {
		return ErrInvalidAmount
	}
	if req.Type == "" || req.Type.IsGrant() {
		return ErrInvalidOrderType
	}
	if req.CompanyID == uuid.Nil {
		return ErrCompanyNotFound
	}
	return nil
}

func balanceOf(c *Credit, now time.Time) *Balance {
	if c == nil {
		return &Balance{Balance: 0, IsExpired: true}
	}
	start, expiry := c.StartDate, c.ExpiryDate
	return &Balance{
		Balance:    c.Effective(now),
		StartDate:  &start,
		ExpiryDate: &expiry,
		IsExpired:  c.IsExpired(now),
	}
}

// IsPaymentError reports whether err means the company must top up or buy
// more credits, as opposed to a store or input failure.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrCreditsExpired) || errors.Is(err, ErrInsufficientCredits)
}
