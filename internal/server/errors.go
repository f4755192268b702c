package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/apperror"
	"github.com/smallbiznis/nel3/internal/authorization"
	ratedomain "github.com/smallbiznis/nel3/internal/rate/domain"
	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Details any               `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type limitDetails struct {
	PartnerID string          `json:"partnerId"`
	Period    string          `json:"period"`
	Requested decimal.Decimal `json:"requested"`
	Consumed  decimal.Decimal `json:"consumed"`
	Remaining decimal.Decimal `json:"remaining"`
	Limit     decimal.Decimal `json:"limit"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrRateLimited  = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError(err error) error {
	msg := "invalid request"
	if err != nil {
		msg = err.Error()
	}
	return apperror.Invalid("request", "body", "invalid_request", msg)
}

func mapError(err error) (int, errorPayload) {
	var (
		vErr     *apperror.ValidationError
		limitErr *apperror.LimitExceededError
		transErr *apperror.TransitionError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	case errors.As(err, &vErr):
		fields := make([]ValidationError, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: "validation error", Errors: fields}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, sessiondomain.ErrInvalidCredentials),
		errors.Is(err, sessiondomain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, apperror.ErrNotFound),
		errors.Is(err, ratedomain.ErrNoActiveRate):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{Type: "rate_limited", Message: "too many requests"}
	case errors.As(err, &transErr):
		return http.StatusConflict, errorPayload{Type: "invalid_transition", Message: transErr.Error(), Details: transErr}
	case errors.As(err, &limitErr):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "limit_exceeded",
			Message: limitErr.Error(),
			Details: limitDetails{
				PartnerID: limitErr.PartnerID,
				Period:    limitErr.Period,
				Requested: limitErr.Requested,
				Consumed:  limitErr.Consumed,
				Remaining: limitErr.Remaining(),
				Limit:     limitErr.Limit,
			},
		}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

// classifyErrorForLog returns the error type and code logged per request.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if kind := apperror.Kind(err); kind != "internal_error" {
		return kind, http.StatusText(status)
	}
	return payload.Type, http.StatusText(status)
}
