package domain

import "time"

// DateLayout is the key format of a slot date.
const DateLayout = "2006-01-02"

// Slot is a partner's daily appointment capacity, keyed by (PartnerID, Date).
type Slot struct {
	PartnerID string    `json:"partnerId"`
	Date      string    `json:"date"`
	Capacity  int       `json:"capacity"`
	Booked    int       `json:"booked"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Slot) Key() string { return SlotKey(s.PartnerID, s.Date) }

func (s Slot) Available() int { return s.Capacity - s.Booked }

func SlotKey(partnerID, date string) string { return partnerID + "|" + date }

type UpsertSlotRequest struct {
	PartnerID string `json:"partnerId" validate:"notblank"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Capacity  int    `json:"capacity" validate:"gte=0"`
	Booked    int    `json:"booked" validate:"gte=0,ltefield=Capacity"`
}
