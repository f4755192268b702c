package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/limit/domain"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Limits  *config.LimitsHolder
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// Service is the Limit Ledger. Besides domain.Ledger it offers TryReserveTx
// for callers that already hold a store transaction.
type Service struct {
	store   *store.Store
	limits  *config.LimitsHolder
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		store:   p.Store,
		limits:  p.Limits,
		log:     p.Log.Named("limit.service"),
		metrics: p.Metrics,
	}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.Invalid("limit", "amount", "invalid", "amount must be positive")
	}
	return nil
}

func (s *Service) usageTx(tx *store.Tx, partnerID string, period domain.Period) (domain.Usage, error) {
	if period == "" {
		period = domain.PeriodDaily
	}
	bucket, err := domain.BucketKey(period, tx.Now(), tx.Location())
	if err != nil {
		return domain.Usage{}, apperror.Invalid("limit", "period", "invalid", err.Error())
	}
	limit := s.limits.Get().DailyFor(partnerID)
	consumed := tx.LedgerConsumed(partnerID, bucket)
	remaining := limit.Sub(consumed)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return domain.Usage{
		PartnerID: partnerID,
		Period:    period,
		Bucket:    bucket,
		Consumed:  consumed,
		Remaining: remaining,
		Limit:     limit,
	}, nil
}

func (s *Service) Usage(ctx context.Context, partnerID string, period domain.Period) (domain.Usage, error) {
	var out domain.Usage
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		out, err = s.usageTx(tx, partnerID, period)
		return err
	})
	return out, err
}

func (s *Service) Check(ctx context.Context, partnerID string, amount decimal.Decimal, period domain.Period) (bool, error) {
	if err := validateAmount(amount); err != nil {
		return false, err
	}
	u, err := s.Usage(ctx, partnerID, period)
	if err != nil {
		return false, err
	}
	return u.Consumed.Add(amount).LessThanOrEqual(u.Limit), nil
}

func (s *Service) Use(ctx context.Context, partnerID string, amount decimal.Decimal, period domain.Period) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	return s.store.Update(ctx, func(tx *store.Tx) error {
		u, err := s.usageTx(tx, partnerID, period)
		if err != nil {
			return err
		}
		tx.LedgerAdd(partnerID, u.Bucket, amount)
		return nil
	})
}

func (s *Service) TryReserve(ctx context.Context, partnerID string, amount decimal.Decimal, period domain.Period) (domain.Reservation, error) {
	var out domain.Reservation
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		out, err = s.TryReserveTx(ctx, tx, partnerID, amount, period)
		return err
	})
	return out, err
}

// TryReserveTx checks and consumes amount inside tx. On refusal the ledger is
// left untouched and an *apperror.LimitExceededError is returned together with
// the current usage.
func (s *Service) TryReserveTx(ctx context.Context, tx *store.Tx, partnerID string, amount decimal.Decimal, period domain.Period) (domain.Reservation, error) {
	if err := validateAmount(amount); err != nil {
		return domain.Reservation{}, err
	}
	u, err := s.usageTx(tx, partnerID, period)
	if err != nil {
		return domain.Reservation{}, err
	}
	res := domain.Reservation{
		PartnerID: partnerID,
		Period:    u.Period,
		Bucket:    u.Bucket,
		Consumed:  u.Consumed,
		Remaining: u.Remaining,
		Limit:     u.Limit,
	}
	if u.Consumed.Add(amount).GreaterThan(u.Limit) {
		s.metrics.RecordLimitDenied(ctx, string(u.Period))
		s.log.Info("limit reservation refused",
			zap.String("partner_id", partnerID),
			zap.String("bucket", u.Bucket),
			zap.String("requested", amount.StringFixed(2)),
			zap.String("consumed", u.Consumed.StringFixed(2)),
			zap.String("limit", u.Limit.StringFixed(2)),
		)
		return res, &apperror.LimitExceededError{
			PartnerID: partnerID,
			Period:    string(u.Period),
			Requested: amount,
			Consumed:  u.Consumed,
			Limit:     u.Limit,
		}
	}

	res.OK = true
	res.Consumed = tx.LedgerAdd(partnerID, u.Bucket, amount)
	res.Remaining = u.Limit.Sub(res.Consumed)
	s.metrics.RecordLimitReserved(ctx, string(u.Period))
	return res, nil
}
