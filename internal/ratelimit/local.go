package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local keeps one token bucket per key in process memory. Idle buckets are
// dropped once they have refilled completely.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocal(perSecond float64, burst int) *Local {
	return &Local{
		buckets: map[string]*localBucket{},
		rate:    rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *Local) Allow(_ context.Context, key string) (Result, error) {
	if key == "" {
		return Result{}, ErrEmptyKey
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := Result{Limit: l.burst}
	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
	} else {
		res.Allowed = true
	}
	res.Remaining = int(b.limiter.TokensAt(now))
	return res, nil
}

func (l *Local) sweep(now time.Time) {
	if l.rate <= 0 {
		return
	}
	idle := time.Duration(float64(l.burst) / float64(l.rate) * float64(time.Second))
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(l.buckets, key)
		}
	}
}
