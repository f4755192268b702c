// Package apperror holds the typed failures every store command reports to its caller.
//
// Each concrete type matches its kind sentinel through errors.Is, so callers can branch
// on the kind without caring about the details:
//
//	if errors.Is(err, apperror.ErrTransition) { ... }
package apperror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation    = errors.New("validation_error")
	ErrNotFound      = errors.New("not_found")
	ErrTransition    = errors.New("invalid_transition")
	ErrLimitExceeded = errors.New("limit_exceeded")
)

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Entity string       `json:"entity"`
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Code)
	}
	return fmt.Sprintf("%s validation error: %s", e.Entity, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Add appends a field failure and returns the receiver for chaining.
func (e *ValidationError) Add(field, code, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Message: message})
	return e
}

// OrNil returns nil when no field failed so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func NewValidation(entity string) *ValidationError {
	return &ValidationError{Entity: entity}
}

// Invalid builds a single-field validation error.
func Invalid(entity, field, code, message string) error {
	return NewValidation(entity).Add(field, code, message)
}

// NotFoundError reports an operation referencing an unknown id.
type NotFoundError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// TransitionError reports a status change outside the entity's transition table.
type TransitionError struct {
	Entity string `json:"entity"`
	ID     string `json:"id,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (e *TransitionError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: transition %s -> %s not allowed", e.Entity, e.ID, e.From, e.To)
	}
	return fmt.Sprintf("%s: transition %s -> %s not allowed", e.Entity, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrTransition }

// LimitExceededError reports an advance approval that would exceed the partner's daily limit.
type LimitExceededError struct {
	PartnerID string          `json:"partnerId"`
	Period    string          `json:"period"`
	Requested decimal.Decimal `json:"requested"`
	Consumed  decimal.Decimal `json:"consumed"`
	Limit     decimal.Decimal `json:"limit"`
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("partner %s: %s limit %s exceeded (consumed %s, requested %s)",
		e.PartnerID, e.Period, e.Limit.StringFixed(2), e.Consumed.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *LimitExceededError) Is(target error) bool { return target == ErrLimitExceeded }

// Remaining is the amount still available in the period.
func (e *LimitExceededError) Remaining() decimal.Decimal {
	rem := e.Limit.Sub(e.Consumed)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Kind returns the machine-readable kind for logs and API payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTransition):
		return "invalid_transition"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	default:
		return "internal_error"
	}
}
