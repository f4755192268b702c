package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const PeriodDaily Period = "daily"

var ErrUnsupportedPeriod = errors.New("unsupported_period")

// Reservation is the outcome of TryReserve.
type Reservation struct {
	OK        bool            `json:"ok"`
	PartnerID string          `json:"partnerId"`
	Period    Period          `json:"period"`
	Bucket    string          `json:"bucket"`
	Consumed  decimal.Decimal `json:"consumed"`
	Remaining decimal.Decimal `json:"remaining"`
	Limit     decimal.Decimal `json:"limit"`
}

type Usage struct {
	PartnerID string          `json:"partnerId"`
	Period    Period          `json:"period"`
	Bucket    string          `json:"bucket"`
	Consumed  decimal.Decimal `json:"consumed"`
	Remaining decimal.Decimal `json:"remaining"`
	Limit     decimal.Decimal `json:"limit"`
}

// BucketKey returns the ledger bucket of t for period, evaluated in loc.
func BucketKey(period Period, t time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch period {
	case PeriodDaily, "":
		return string(PeriodDaily) + ":" + t.In(loc).Format("2006-01-02"), nil
	default:
		return "", ErrUnsupportedPeriod
	}
}
