package partner

import (
	"github.com/smallbiznis/nel3/internal/partner/service"
	"go.uber.org/fx"
)

var Module = fx.Module("partner.service",
	fx.Provide(service.New),
)
