package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/smallbiznis/nel3/internal/agenda/domain"
	"github.com/smallbiznis/nel3/internal/apperror"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/observability/logger"
	"github.com/smallbiznis/nel3/internal/store"
	"github.com/smallbiznis/nel3/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Store   *store.Store
	Emitter notificationdomain.Emitter
	Log     *zap.Logger
}

type Service struct {
	store   *store.Store
	emitter notificationdomain.Emitter
	log     *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		store:   p.Store,
		emitter: p.Emitter,
		log:     p.Log.Named("agenda.service"),
	}
}

func sortSlots(slots []domain.Slot) []domain.Slot {
	slices.SortStableFunc(slots, func(a, b domain.Slot) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.PartnerID, b.PartnerID)
	})
	return slots
}

func (s *Service) List(ctx context.Context) ([]domain.Slot, error) {
	var out []domain.Slot
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = sortSlots(tx.Agenda().Find(nil))
		return nil
	})
	return out, err
}

func (s *Service) ListByPartner(ctx context.Context, partnerID string) ([]domain.Slot, error) {
	var out []domain.Slot
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = sortSlots(tx.Agenda().Find(func(sl domain.Slot) bool { return sl.PartnerID == partnerID }))
		return nil
	})
	return out, err
}

func (s *Service) Get(ctx context.Context, partnerID, date string) (domain.Slot, error) {
	var out domain.Slot
	key := domain.SlotKey(partnerID, date)
	err := s.store.View(ctx, func(tx *store.Tx) error {
		sl, ok := tx.Agenda().FindOne(key)
		if !ok {
			return apperror.NotFound("agenda", key)
		}
		out = sl
		return nil
	})
	return out, err
}

// Upsert replaces the slot for (partnerId, date). Filling the last free
// position raises a notification for the partner.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertSlotRequest) (domain.Slot, error) {
	req.PartnerID = strings.TrimSpace(req.PartnerID)
	req.Date = strings.TrimSpace(req.Date)
	if err := validation.Struct("agenda", req); err != nil {
		return domain.Slot{}, err
	}

	var (
		out        domain.Slot
		becameFull bool
		partner    string
	)
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		if _, ok := tx.Partners().FindOne(req.PartnerID); !ok {
			return apperror.Invalid("agenda", "partnerId", "unknown_partner", fmt.Sprintf("partner %q does not exist", req.PartnerID))
		}
		slot := domain.Slot{
			PartnerID: req.PartnerID,
			Date:      req.Date,
			Capacity:  req.Capacity,
			Booked:    req.Booked,
			UpdatedAt: tx.Now(),
		}
		prev, exists := tx.Agenda().FindOne(slot.Key())
		if exists {
			tx.Agenda().Save(slot)
		} else {
			tx.Agenda().Create(slot)
		}
		full := slot.Capacity > 0 && slot.Available() == 0
		becameFull = full && (!exists || prev.Available() > 0)
		partner = store.PartnerName(tx, slot.PartnerID)
		out = slot
		return nil
	})
	if err != nil {
		return domain.Slot{}, err
	}

	logger.WithContext(ctx, s.log).Info("agenda slot saved",
		zap.String("partner_id", out.PartnerID),
		zap.String("date", out.Date),
		zap.Int("capacity", out.Capacity),
		zap.Int("booked", out.Booked),
	)
	if becameFull {
		s.emitter.Emit(ctx, notificationdomain.Draft{
			Type:      notificationdomain.TypeAgenda,
			Title:     "Agenda lotada",
			Message:   fmt.Sprintf("A agenda de %s para %s está lotada.", partner, out.Date),
			Priority:  notificationdomain.PriorityLow,
			PartnerID: out.PartnerID,
			ActionURL: "/agenda",
		})
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, partnerID, date string) (bool, error) {
	var removed bool
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		removed = tx.Agenda().Delete(domain.SlotKey(partnerID, date))
		return nil
	})
	return removed, err
}
