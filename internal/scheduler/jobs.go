package scheduler

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/format"
	limitdomain "github.com/smallbiznis/nel3/internal/limit/domain"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	obslogger "github.com/smallbiznis/nel3/internal/observability/logger"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// AutoMatchJob pairs imported bank items that arrived since the last run.
func (s *Scheduler) AutoMatchJob(ctx context.Context) error {
	summary, err := s.reconciliationSvc.AutoMatch(ctx)
	if err != nil {
		return err
	}
	if summary.Examined > 0 {
		obslogger.WithContext(ctx, s.log).Info("reconciliation auto-match",
			zap.Int("examined", summary.Examined),
			zap.Int("matched", summary.Matched),
			zap.Int("divergent", summary.Divergent),
			zap.Int("unmatched", summary.Unmatched),
		)
	}
	return nil
}

// LimitAlertJob warns each approved partner once per bucket when its daily
// usage reaches LimitAlertPct of the limit.
func (s *Scheduler) LimitAlertJob(ctx context.Context) error {
	partners, err := s.partnerSvc.ListApproved(ctx)
	if err != nil {
		return err
	}

	var jobErr error
	for _, p := range partners {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		usage, err := s.ledger.Usage(ctx, p.ID, limitdomain.PeriodDaily)
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			continue
		}
		if !usage.Limit.IsPositive() {
			continue
		}
		pct := usage.Consumed.Mul(hundred).Div(usage.Limit)
		if pct.LessThan(s.cfg.LimitAlertPct) {
			continue
		}
		if !s.markAlerted(p.ID, usage.Bucket) {
			continue
		}

		priority := notificationdomain.PriorityMedium
		if usage.Remaining.Sign() <= 0 {
			priority = notificationdomain.PriorityHigh
		}
		s.emitter.Emit(ctx, notificationdomain.Draft{
			Type:      notificationdomain.TypeSystem,
			Title:     "Limite diário próximo do fim",
			Message:   p.Name + " consumiu " + format.BRL(usage.Consumed) + " de " + format.BRL(usage.Limit) + " do limite diário.",
			Priority:  priority,
			PartnerID: p.ID,
		})
	}
	return jobErr
}

// markAlerted reports whether partnerID has not been warned in bucket yet.
// Entries from other buckets are dropped.
func (s *Scheduler) markAlerted(partnerID, bucket string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.alerted {
		if b != bucket {
			delete(s.alerted, id)
		}
	}
	if b, ok := s.alerted[partnerID]; ok && b == bucket {
		return false
	}
	s.alerted[partnerID] = bucket
	return true
}
