package domain

import (
	"slices"
	"time"

	"github.com/smallbiznis/nel3/internal/kyc"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Affiliate is a healthcare professional working with one or more partners.
type Affiliate struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	TaxID                string     `json:"cpfCnpj"`
	CRM                  string     `json:"crm,omitempty"`
	Specialty            string     `json:"specialty,omitempty"`
	Email                string     `json:"email,omitempty"`
	Phone                string     `json:"phone,omitempty"`
	City                 string     `json:"city"`
	Address              string     `json:"address,omitempty"`
	Status               Status     `json:"status"`
	KYCStatus            kyc.Status `json:"kycStatus"`
	AssociatedPartnerIDs []string   `json:"associatedPartnerIds"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func (a Affiliate) Clone() Affiliate {
	a.AssociatedPartnerIDs = slices.Clone(a.AssociatedPartnerIDs)
	return a
}

type CreateAffiliateRequest struct {
	Name                 string     `json:"name" validate:"notblank"`
	TaxID                string     `json:"cpfCnpj" validate:"required,document"`
	CRM                  string     `json:"crm"`
	Specialty            string     `json:"specialty"`
	Email                string     `json:"email" validate:"omitempty,email"`
	Phone                string     `json:"phone"`
	City                 string     `json:"city" validate:"notblank"`
	Address              string     `json:"address"`
	Status               Status     `json:"status" validate:"omitempty,oneof=active inactive"`
	KYCStatus            kyc.Status `json:"kycStatus" validate:"omitempty,oneof=pending under_review approved rejected"`
	AssociatedPartnerIDs []string   `json:"associatedPartnerIds"`
}

type UpsertAffiliateRequest struct {
	ID                   string      `json:"id"`
	Name                 *string     `json:"name"`
	TaxID                *string     `json:"cpfCnpj"`
	CRM                  *string     `json:"crm"`
	Specialty            *string     `json:"specialty"`
	Email                *string     `json:"email"`
	Phone                *string     `json:"phone"`
	City                 *string     `json:"city"`
	Address              *string     `json:"address"`
	Status               *Status     `json:"status"`
	KYCStatus            *kyc.Status `json:"kycStatus"`
	AssociatedPartnerIDs *[]string   `json:"associatedPartnerIds"`
}
