package notification

import (
	"github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) domain.Emitter { return s }),
)
