package agenda

import (
	"github.com/smallbiznis/nel3/internal/agenda/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agenda.service",
	fx.Provide(service.New),
)
