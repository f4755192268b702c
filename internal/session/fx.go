package session

import (
	"github.com/smallbiznis/nel3/internal/session/service"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(NewManager),
	fx.Provide(service.New),
)
