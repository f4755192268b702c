package main

import (
	"github.com/smallbiznis/nel3/internal/advance"
	"github.com/smallbiznis/nel3/internal/affiliate"
	"github.com/smallbiznis/nel3/internal/agenda"
	"github.com/smallbiznis/nel3/internal/authorization"
	"github.com/smallbiznis/nel3/internal/catalog"
	"github.com/smallbiznis/nel3/internal/charge"
	"github.com/smallbiznis/nel3/internal/clock"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/invoice"
	"github.com/smallbiznis/nel3/internal/limit"
	"github.com/smallbiznis/nel3/internal/notification"
	"github.com/smallbiznis/nel3/internal/observability"
	"github.com/smallbiznis/nel3/internal/overview"
	"github.com/smallbiznis/nel3/internal/partner"
	"github.com/smallbiznis/nel3/internal/rate"
	"github.com/smallbiznis/nel3/internal/ratelimit"
	"github.com/smallbiznis/nel3/internal/reconciliation"
	"github.com/smallbiznis/nel3/internal/scheduler"
	"github.com/smallbiznis/nel3/internal/server"
	"github.com/smallbiznis/nel3/internal/session"
	"github.com/smallbiznis/nel3/internal/settlement"
	"github.com/smallbiznis/nel3/internal/storage"
	"github.com/smallbiznis/nel3/internal/store"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		storage.Module,
		store.Module,

		// Cross-cutting domains
		notification.Module,
		limit.Module,
		session.Module,
		authorization.Module,
		ratelimit.Module,

		// Entity families
		partner.Module,
		affiliate.Module,
		invoice.Module,
		charge.Module,
		settlement.Module,
		rate.Module,
		advance.Module,
		reconciliation.Module,
		agenda.Module,
		catalog.Module,
		overview.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}
