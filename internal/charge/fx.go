package charge

import (
	"github.com/smallbiznis/nel3/internal/charge/service"
	"go.uber.org/fx"
)

var Module = fx.Module("charge.service",
	fx.Provide(service.New),
)
