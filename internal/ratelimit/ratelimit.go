// Package ratelimit throttles repeated requests per key, with a redis
// backend when the snapshot lives in redis and a process-local one otherwise.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrEmptyKey = errors.New("rate limiter key is empty")

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether one more request for key fits the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
