package domain

import (
	"errors"
	"time"
)

type Role string

const (
	// RoleOperator is the platform back office.
	RoleOperator Role = "nel3"
	// RoleHospital is a partner user scoped to its own partner.
	RoleHospital Role = "hospital"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// User is the current-user record. PartnerID is set for hospital users.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	PartnerID string `json:"partnerId,omitempty"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
