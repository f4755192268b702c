package tracing

import (
	"errors"

	"github.com/smallbiznis/nel3/internal/apperror"
	"go.opentelemetry.io/otel/attribute"
)

var allowedAttributeKeys = map[attribute.Key]struct{}{
	"request_id":              {},
	"http.method":             {},
	"http.route":              {},
	"http.status_code":        {},
	"http.server_duration_ms": {},
	"entity":                  {},
	"entity.id":               {},
	"transition.from":         {},
	"transition.to":           {},
	"error.kind":              {},
	"actor.role":              {},
}

// SafeAttributes keeps only attributes that never carry document numbers or amounts.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if _, ok := allowedAttributeKeys[a.Key]; ok {
			out = append(out, a)
		}
	}
	return out
}

// SafeError reduces err to its kind so span events never embed payload values.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(apperror.Kind(err))
}
