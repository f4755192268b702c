package overview

import (
	"github.com/smallbiznis/nel3/internal/overview/service"
	"go.uber.org/fx"
)

var Module = fx.Module("overview.service",
	fx.Provide(service.New),
)
