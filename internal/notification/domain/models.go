package domain

import "time"

type Type string

const (
	TypeKYC        Type = "kyc"
	TypeAdvance    Type = "advance"
	TypeSettlement Type = "settlement"
	TypeSecurity   Type = "security"
	TypeAgenda     Type = "agenda"
	TypeInvoice    Type = "invoice"
	TypeSystem     Type = "system"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Notification is append-only except for Read.
type Notification struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Priority    Priority  `json:"priority"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
	PartnerID   string    `json:"partnerId,omitempty"`
	AffiliateID string    `json:"affiliateId,omitempty"`
	ActionURL   string    `json:"actionUrl,omitempty"`
	// Seq breaks createdAt ties in insertion order.
	Seq int64 `json:"seq"`
}

// Draft is the caller-supplied part of a notification.
type Draft struct {
	Type        Type     `json:"type" validate:"required"`
	Title       string   `json:"title" validate:"notblank"`
	Message     string   `json:"message"`
	Priority    Priority `json:"priority"`
	PartnerID   string   `json:"partnerId"`
	AffiliateID string   `json:"affiliateId"`
	ActionURL   string   `json:"actionUrl"`
}
