package affiliate

import (
	"github.com/smallbiznis/nel3/internal/affiliate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("affiliate.service",
	fx.Provide(service.New),
)
