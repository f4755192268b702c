package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/kyc"
	"github.com/smallbiznis/nel3/pkg/repository"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Document is a file attached to a partner during KYC.
type Document struct {
	Name       string    `json:"name"`
	Type       string    `json:"type,omitempty"`
	URL        string    `json:"url,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Partner is a hospital or clinic that sells receivables.
type Partner struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	CNPJ            string           `json:"cnpj"`
	City            string           `json:"city"`
	Address         string           `json:"address,omitempty"`
	Status          Status           `json:"status"`
	KYCStatus       kyc.Status       `json:"kycStatus"`
	VolumeMonthly   *decimal.Decimal `json:"volumeMonthly,omitempty"`
	Contracts       *int             `json:"contracts,omitempty"`
	AffiliatesCount *int             `json:"affiliatesCount,omitempty"`
	Documents       []Document       `json:"documents"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func (p Partner) Clone() Partner {
	p.VolumeMonthly = repository.ClonePtr(p.VolumeMonthly)
	p.Contracts = repository.ClonePtr(p.Contracts)
	p.AffiliatesCount = repository.ClonePtr(p.AffiliatesCount)
	p.Documents = slices.Clone(p.Documents)
	return p
}

type CreatePartnerRequest struct {
	Name            string           `json:"name" validate:"notblank"`
	CNPJ            string           `json:"cnpj" validate:"required,cnpj"`
	City            string           `json:"city" validate:"notblank"`
	Address         string           `json:"address"`
	Status          Status           `json:"status" validate:"omitempty,oneof=active inactive"`
	KYCStatus       kyc.Status       `json:"kycStatus" validate:"omitempty,oneof=pending under_review approved rejected"`
	VolumeMonthly   *decimal.Decimal `json:"volumeMonthly"`
	Contracts       *int             `json:"contracts" validate:"omitempty,gte=0"`
	AffiliatesCount *int             `json:"affiliatesCount" validate:"omitempty,gte=0"`
	Documents       []Document       `json:"documents"`
}

// UpsertPartnerRequest carries a partial record: nil fields are left as they are.
type UpsertPartnerRequest struct {
	ID              string           `json:"id"`
	Name            *string          `json:"name"`
	CNPJ            *string          `json:"cnpj"`
	City            *string          `json:"city"`
	Address         *string          `json:"address"`
	Status          *Status          `json:"status"`
	KYCStatus       *kyc.Status      `json:"kycStatus"`
	VolumeMonthly   *decimal.Decimal `json:"volumeMonthly"`
	Contracts       *int             `json:"contracts"`
	AffiliatesCount *int             `json:"affiliatesCount"`
	Documents       *[]Document      `json:"documents"`
}
