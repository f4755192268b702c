package ratelimit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/nel3/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

type Out struct {
	fx.Out

	SignIn Limiter
	Locker *Locker
}

// New builds the sign-in limiter. With the redis storage driver the buckets
// and job leases are shared across instances; otherwise Locker is nil.
func New(p Params) Out {
	log := p.Log.Named("ratelimit")
	perSecond := float64(p.Config.SignInRatePerMin) / 60
	burst := p.Config.SignInBurst

	if p.Config.StorageDriver != "redis" {
		log.Info("using local rate limiter", zap.Float64("per_second", perSecond), zap.Int("burst", burst))
		return Out{SignIn: NewLocal(perSecond, burst)}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Config.RedisAddr,
		Password: p.Config.RedisPassword,
		DB:       p.Config.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error { return client.Close() },
	})
	prefix := p.Config.AppName + ":"
	log.Info("using redis rate limiter", zap.Float64("per_second", perSecond), zap.Int("burst", burst))
	return Out{
		SignIn: NewTokenBucket(client, prefix+"signin:", perSecond, burst),
		Locker: NewLocker(client, prefix+"lock:"),
	}
}
