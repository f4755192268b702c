package limit

import (
	"github.com/smallbiznis/nel3/internal/limit/domain"
	"github.com/smallbiznis/nel3/internal/limit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("limit.service",
	fx.Provide(service.New),
	fx.Provide(func(s *service.Service) domain.Ledger { return s }),
)
