package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/pkg/repository"
)

// Rate is a fee configuration for one (partner, service) pair over an effective window.
type Rate struct {
	ID             string          `json:"id"`
	PartnerID      string          `json:"partnerId"`
	ServiceID      string          `json:"serviceId"`
	BaseRatePct    decimal.Decimal `json:"baseRatePct"`
	FixedFee       decimal.Decimal `json:"fixedFee"`
	EffectiveDate  time.Time       `json:"effectiveDate"`
	ExpirationDate *time.Time      `json:"expirationDate,omitempty"`
	IsActive       bool            `json:"isActive"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	UpdatedBy      string          `json:"updatedBy"`
}

func (r Rate) Clone() Rate {
	r.ExpirationDate = repository.ClonePtr(r.ExpirationDate)
	return r
}

// DerivedStatus is computed at read time, never stored.
type DerivedStatus string

const (
	DerivedInactive DerivedStatus = "Inactive"
	DerivedExpired  DerivedStatus = "Expired"
	DerivedFuture   DerivedStatus = "Future"
	DerivedActive   DerivedStatus = "Active"
)

// StatusAt applies Inactive, Expired, Future, Active in that precedence.
func (r Rate) StatusAt(now time.Time) DerivedStatus {
	switch {
	case !r.IsActive:
		return DerivedInactive
	case r.ExpirationDate != nil && r.ExpirationDate.Before(now):
		return DerivedExpired
	case r.EffectiveDate.After(now):
		return DerivedFuture
	default:
		return DerivedActive
	}
}

type View struct {
	Rate
	Status DerivedStatus `json:"status"`
}

type CreateRateRequest struct {
	PartnerID      string          `json:"partnerId" validate:"notblank"`
	ServiceID      string          `json:"serviceId" validate:"notblank"`
	BaseRatePct    decimal.Decimal `json:"baseRatePct"`
	FixedFee       decimal.Decimal `json:"fixedFee"`
	EffectiveDate  time.Time       `json:"effectiveDate" validate:"required"`
	ExpirationDate *time.Time      `json:"expirationDate"`
	IsActive       *bool           `json:"isActive"`
	UpdatedBy      string          `json:"updatedBy"`
}

type UpsertRateRequest struct {
	ID             string           `json:"id"`
	PartnerID      *string          `json:"partnerId"`
	ServiceID      *string          `json:"serviceId"`
	BaseRatePct    *decimal.Decimal `json:"baseRatePct"`
	FixedFee       *decimal.Decimal `json:"fixedFee"`
	EffectiveDate  *time.Time       `json:"effectiveDate"`
	ExpirationDate *time.Time       `json:"expirationDate"`
	// ClearExpiration removes the expiration date; ExpirationDate is ignored.
	ClearExpiration bool   `json:"clearExpiration"`
	IsActive        *bool  `json:"isActive"`
	UpdatedBy       string `json:"updatedBy"`
}

// PickActive returns the active rate for the pair with the latest effective date.
func PickActive(rates []Rate, partnerID, serviceID string, now time.Time) (Rate, bool) {
	var (
		best  Rate
		found bool
	)
	for _, r := range rates {
		if r.PartnerID != partnerID || r.ServiceID != serviceID {
			continue
		}
		if r.StatusAt(now) != DerivedActive {
			continue
		}
		if !found || r.EffectiveDate.After(best.EffectiveDate) {
			best, found = r, true
		}
	}
	return best, found
}
