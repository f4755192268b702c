package invoice

import (
	"github.com/smallbiznis/nel3/internal/invoice/render"
	"github.com/smallbiznis/nel3/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(render.NewRenderer),
	fx.Provide(service.New),
)
