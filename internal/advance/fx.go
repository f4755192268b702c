package advance

import (
	"github.com/smallbiznis/nel3/internal/advance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("advance.service",
	fx.Provide(service.New),
)
