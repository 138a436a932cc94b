package post

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/realty/realty-api/internal/domain/credit"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 50 * time.Millisecond
)

// Config prices the sponsored post feature
type Config struct {
	Price          int
	VisibilityDays int
}

// Service handles post business logic
type Service struct {
	credits credit.Service
	runner  TxRunner
	repo    Repository
	cfg     Config

	maxAttempts uint
	retryDelay  time.Duration
	now         func() time.Time
}

// Option customizes the post service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRetry sets how often an aborted purchase is replayed and the first
// backoff delay.
func WithRetry(maxAttempts uint, initialDelay time.Duration) Option {
	return func(s *Service) {
		s.maxAttempts = maxAttempts
		s.retryDelay = initialDelay
	}
}

// NewService creates post service
func NewService(credits credit.Service, runner TxRunner, repo Repository, cfg Config, opts ...Option) *Service {
	s := &Service{
		credits:     credits,
		runner:      runner,
		repo:        repo,
		cfg:         cfg,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSponsored charges the company and creates the sponsored post in one
// transaction. A failed insert rolls the deduction back with it. Aborted
// transactions are replayed with exponential backoff; every other error is
// returned as is.
func (s *Service) CreateSponsored(ctx context.Context, in CreateSponsoredInput) (*SponsoredResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	if s.cfg.Price <= 0 {
		return nil, ErrFeatureNotPriced
	}

	days := s.cfg.VisibilityDays
	if in.SponsorDurationDays != nil {
		days = *in.SponsorDurationDays
	}
	if days <= 0 {
		return nil, ErrInvalidDuration
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryDelay

	attempt := 0
	result, err := backoff.Retry(ctx, func() (*SponsoredResult, error) {
		attempt++
		res, err := s.createOnce(ctx, in, days)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, credit.ErrTransactionAborted) {
			log.Warn().Err(err).
				Str("company_id", in.CompanyID.String()).
				Int("attempt", attempt).
				Msg("sponsored post transaction aborted, retrying")
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(s.maxAttempts))
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) createOnce(ctx context.Context, in CreateSponsoredInput, days int) (*SponsoredResult, error) {
	now := s.now()
	expiry := now.AddDate(0, 0, days)

	p := &Post{
		ID:          uuid.New(),
		CompanyID:   in.CompanyID,
		Title:       in.Title,
		Body:        in.Body,
		IsSponsored: true,
		ExpiryDate:  &expiry,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var deducted *credit.DeductResult
	err := s.runner.InTx(ctx, func(ctx context.Context, ledger credit.Tx, posts Writer) error {
		// The order is written before the post exists; type_id is filled in below.
		res, err := s.credits.DeductTx(ctx, ledger, credit.DeductRequest{
			CompanyID: in.CompanyID,
			Credits:   s.cfg.Price,
			Type:      credit.OrderTypeCompanyPost,
			UserID:    in.UserID,
		})
		if err != nil {
			return err
		}

		if err := posts.Create(ctx, p); err != nil {
			return err
		}

		if err := ledger.SetOrderTypeID(ctx, res.Order.ID, p.ID.String()); err != nil {
			return err
		}
		res.Order.TypeID = p.ID.String()

		deducted = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.credits.PublishSpend(ctx, deducted)

	log.Info().
		Str("post_id", p.ID.String()).
		Str("company_id", in.CompanyID.String()).
		Time("expiry_date", expiry).
		Msg("sponsored post created")

	return &SponsoredResult{
		Post:             p,
		CreditsDeducted:  s.cfg.Price,
		RemainingBalance: deducted.RemainingBalance,
		ExpiryDate:       expiry,
	}, nil
}

// GetByID returns a post
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repo.GetByID(ctx, id)
}
