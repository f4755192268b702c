package service

import (
	"context"
	"sort"
	"strings"

	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/observability/metrics"
	"github.com/smallbiznis/nel3/internal/store"
	"github.com/smallbiznis/nel3/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	store   *store.Store
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		log:     p.Log.Named("notification.service"),
		metrics: p.Metrics,
	}
}

func normalizeDraft(d domain.Draft) (domain.Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Message = strings.TrimSpace(d.Message)
	if d.Priority == "" {
		d.Priority = domain.PriorityMedium
	}
	if err := validation.Struct("notification", d); err != nil {
		return domain.Draft{}, err
	}
	if !d.Priority.Valid() {
		return domain.Draft{}, apperror.Invalid("notification", "priority", "invalid", "unknown priority")
	}
	return d, nil
}

// Append records a notification inside an existing store transaction.
func Append(tx *store.Tx, d domain.Draft) domain.Notification {
	n := domain.Notification{
		ID:          tx.NewID(),
		Type:        d.Type,
		Title:       d.Title,
		Message:     d.Message,
		Priority:    d.Priority,
		CreatedAt:   tx.Now(),
		PartnerID:   d.PartnerID,
		AffiliateID: d.AffiliateID,
		ActionURL:   d.ActionURL,
		Seq:         tx.NextSequence(store.SequenceNotification),
	}
	tx.Notifications().Create(n)
	return n
}

func (s *Service) Create(ctx context.Context, draft domain.Draft) (domain.Notification, error) {
	d, err := normalizeDraft(draft)
	if err != nil {
		return domain.Notification{}, err
	}

	var out domain.Notification
	err = s.store.Update(ctx, func(tx *store.Tx) error {
		out = Append(tx, d)
		return nil
	})
	if err != nil {
		return domain.Notification{}, err
	}
	s.metrics.RecordNotification(ctx, string(out.Type), string(out.Priority))
	return out, nil
}

// Emit stores drafts in one command. It never returns an error: invalid drafts
// and persistence failures are logged and counted.
func (s *Service) Emit(ctx context.Context, drafts ...domain.Draft) {
	if len(drafts) == 0 {
		return
	}
	log := logger.WithContext(ctx, s.log)

	valid := make([]domain.Draft, 0, len(drafts))
	for _, draft := range drafts {
		d, err := normalizeDraft(draft)
		if err != nil {
			log.Warn("notification dropped", zap.String("type", string(draft.Type)), zap.Error(err))
			s.metrics.RecordNotificationFailure(ctx, string(draft.Type))
			continue
		}
		valid = append(valid, d)
	}
	if len(valid) == 0 {
		return
	}

	err := s.store.Update(ctx, func(tx *store.Tx) error {
		for _, d := range valid {
			Append(tx, d)
		}
		return nil
	})
	for _, d := range valid {
		if err != nil {
			s.metrics.RecordNotificationFailure(ctx, string(d.Type))
			continue
		}
		s.metrics.RecordNotification(ctx, string(d.Type), string(d.Priority))
	}
	if err != nil {
		log.Error("notification emit failed", zap.Int("count", len(valid)), zap.Error(err))
	}
}

// sortNewestFirst orders by createdAt descending, later insertions first on ties.
func sortNewestFirst(items []domain.Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Seq > items[j].Seq
	})
}

func (s *Service) list(ctx context.Context, filter func(domain.Notification) bool) ([]domain.Notification, error) {
	var out []domain.Notification
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = tx.Notifications().Find(filter)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Notification, error) {
	return s.list(ctx, nil)
}

func (s *Service) ListForPartner(ctx context.Context, partnerID string) ([]domain.Notification, error) {
	return s.list(ctx, func(n domain.Notification) bool { return n.PartnerID == partnerID })
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(tx *store.Tx) error {
		tx.Notifications().Update(id, func(n *domain.Notification) { n.Read = true })
		return nil
	})
}

func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	changed := 0
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		changed = 0
		for _, n := range tx.Notifications().Find(func(n domain.Notification) bool { return !n.Read }) {
			tx.Notifications().Update(n.ID, func(n *domain.Notification) { n.Read = true })
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	n := 0
	err := s.store.View(ctx, func(tx *store.Tx) error {
		n = tx.Notifications().Count(func(n domain.Notification) bool { return !n.Read })
		return nil
	})
	return n, err
}
