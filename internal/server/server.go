package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	advancedomain "github.com/smallbiznis/nel3/internal/advance/domain"
	affiliatedomain "github.com/smallbiznis/nel3/internal/affiliate/domain"
	agendadomain "github.com/smallbiznis/nel3/internal/agenda/domain"
	"github.com/smallbiznis/nel3/internal/authorization"
	catalogdomain "github.com/smallbiznis/nel3/internal/catalog/domain"
	chargedomain "github.com/smallbiznis/nel3/internal/charge/domain"
	"github.com/smallbiznis/nel3/internal/config"
	invoicedomain "github.com/smallbiznis/nel3/internal/invoice/domain"
	limitdomain "github.com/smallbiznis/nel3/internal/limit/domain"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	"github.com/smallbiznis/nel3/internal/observability"
	obslogger "github.com/smallbiznis/nel3/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/nel3/internal/observability/metrics"
	obstracing "github.com/smallbiznis/nel3/internal/observability/tracing"
	overviewdomain "github.com/smallbiznis/nel3/internal/overview/domain"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	ratedomain "github.com/smallbiznis/nel3/internal/rate/domain"
	reconciliationdomain "github.com/smallbiznis/nel3/internal/reconciliation/domain"
	"github.com/smallbiznis/nel3/internal/ratelimit"
	"github.com/smallbiznis/nel3/internal/session"
	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
	settlementdomain "github.com/smallbiznis/nel3/internal/settlement/domain"
	"github.com/smallbiznis/nel3/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

// EngineParams configures NewEngine. Nil metrics and an empty registry are allowed.
type EngineParams struct {
	Debug          bool
	AllowedOrigins []string
	HTTPMetrics    *obsmetrics.HTTPMetrics
	Registry       *prometheus.Registry
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(p.AllowedOrigins))
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           p.Debug,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if p.HTTPMetrics != nil {
		r.Use(p.HTTPMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if p.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})))
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	cfg.AllowHeaders = []string{
		"Origin", "Content-Type", "Content-Length", "Accept",
		"Authorization", obslogger.RequestIDHeader,
	}
	cfg.ExposeHeaders = []string{obslogger.RequestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, reg *prometheus.Registry) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(EngineParams{
		Debug:          obsCfg.Debug(),
		AllowedOrigins: cfg.AllowedOrigins,
		HTTPMetrics:    httpMetrics,
		Registry:       reg,
	})
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	store    *store.Store
	sessions *session.Manager

	sessionSvc        sessiondomain.Service
	authzSvc          authorization.Service
	partnerSvc        partnerdomain.Service
	affiliateSvc      affiliatedomain.Service
	invoiceSvc        invoicedomain.Service
	chargeSvc         chargedomain.Service
	settlementSvc     settlementdomain.Service
	rateSvc           ratedomain.Service
	advanceSvc        advancedomain.Service
	reconciliationSvc reconciliationdomain.Service
	agendaSvc         agendadomain.Service
	notificationSvc   notificationdomain.Service
	catalogSvc        catalogdomain.Catalog
	ledger            limitdomain.Ledger
	overviewSvc       overviewdomain.Service
	signInLimiter     ratelimit.Limiter
	log               *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	Store             *store.Store
	Sessions          *session.Manager
	SessionSvc        sessiondomain.Service
	AuthzSvc          authorization.Service
	PartnerSvc        partnerdomain.Service
	AffiliateSvc      affiliatedomain.Service
	InvoiceSvc        invoicedomain.Service
	ChargeSvc         chargedomain.Service
	SettlementSvc     settlementdomain.Service
	RateSvc           ratedomain.Service
	AdvanceSvc        advancedomain.Service
	ReconciliationSvc reconciliationdomain.Service
	AgendaSvc         agendadomain.Service
	NotificationSvc   notificationdomain.Service
	CatalogSvc        catalogdomain.Catalog
	Ledger            limitdomain.Ledger
	OverviewSvc       overviewdomain.Service
	SignInLimiter     ratelimit.Limiter `optional:"true"`
	Log               *zap.Logger       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:               log.Named("server"),
		engine:            p.Gin,
		cfg:               p.Cfg,
		store:             p.Store,
		sessions:          p.Sessions,
		sessionSvc:        p.SessionSvc,
		authzSvc:          p.AuthzSvc,
		partnerSvc:        p.PartnerSvc,
		affiliateSvc:      p.AffiliateSvc,
		invoiceSvc:        p.InvoiceSvc,
		chargeSvc:         p.ChargeSvc,
		settlementSvc:     p.SettlementSvc,
		rateSvc:           p.RateSvc,
		advanceSvc:        p.AdvanceSvc,
		reconciliationSvc: p.ReconciliationSvc,
		agendaSvc:         p.AgendaSvc,
		notificationSvc:   p.NotificationSvc,
		catalogSvc:        p.CatalogSvc,
		ledger:            p.Ledger,
		overviewSvc:       p.OverviewSvc,
		signInLimiter:     p.SignInLimiter,
	}

	s.registerSessionRoutes()
	s.registerAPIRoutes()
	s.registerFallback()

	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerSessionRoutes() {
	sess := s.engine.Group("/api/v1/session")

	sess.POST("", s.throttle(s.signInLimiter, "signin"), s.SignIn)
	sess.GET("", s.AuthRequired(), s.CurrentSession)
	sess.DELETE("", s.SignOut)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.AuthRequired())

	api.GET("/overview", s.authorize(authorization.ObjectOverview, authorization.ActionView), s.GetOverview)

	// -------- Partners --------
	api.GET("/partners", s.authorize(authorization.ObjectPartner, authorization.ActionView), s.ListPartners)
	api.POST("/partners", s.authorize(authorization.ObjectPartner, authorization.ActionCreate), s.CreatePartner)
	api.GET("/partners/:id", s.authorize(authorization.ObjectPartner, authorization.ActionView), s.GetPartner)
	api.PATCH("/partners/:id", s.authorize(authorization.ObjectPartner, authorization.ActionUpdate), s.UpsertPartner)
	api.DELETE("/partners/:id", s.authorize(authorization.ObjectPartner, authorization.ActionDelete), s.DeletePartner)
	api.POST("/partners/:id/kyc", s.authorize(authorization.ObjectPartner, authorization.ActionKYCTransition), s.TransitionPartnerKYC)
	api.GET("/partners/:id/limit", s.authorize(authorization.ObjectLimit, authorization.ActionView), s.GetPartnerLimit)

	// -------- Affiliates --------
	api.GET("/affiliates", s.authorize(authorization.ObjectAffiliate, authorization.ActionView), s.ListAffiliates)
	api.POST("/affiliates", s.authorize(authorization.ObjectAffiliate, authorization.ActionCreate), s.CreateAffiliate)
	api.GET("/affiliates/:id", s.authorize(authorization.ObjectAffiliate, authorization.ActionView), s.GetAffiliate)
	api.PATCH("/affiliates/:id", s.authorize(authorization.ObjectAffiliate, authorization.ActionUpdate), s.UpsertAffiliate)
	api.DELETE("/affiliates/:id", s.authorize(authorization.ObjectAffiliate, authorization.ActionDelete), s.DeleteAffiliate)
	api.POST("/affiliates/:id/kyc", s.authorize(authorization.ObjectAffiliate, authorization.ActionKYCTransition), s.TransitionAffiliateKYC)

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoices)
	api.POST("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionCreate), s.CreateInvoice)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoice)
	api.GET("/invoices/:id/print", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.PrintInvoice)
	api.PATCH("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionUpdate), s.UpsertInvoice)
	api.DELETE("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionDelete), s.DeleteInvoice)
	api.POST("/invoices/:id/approve", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceDecide), s.ApproveInvoice)
	api.POST("/invoices/:id/reject", s.authorize(authorization.ObjectInvoice, authorization.ActionInvoiceDecide), s.RejectInvoice)

	// -------- Charges --------
	api.GET("/charges", s.authorize(authorization.ObjectCharge, authorization.ActionView), s.ListCharges)
	api.POST("/charges", s.authorize(authorization.ObjectCharge, authorization.ActionCreate), s.CreateCharge)
	api.GET("/charges/:id", s.authorize(authorization.ObjectCharge, authorization.ActionView), s.GetCharge)
	api.PATCH("/charges/:id", s.authorize(authorization.ObjectCharge, authorization.ActionUpdate), s.UpsertCharge)
	api.DELETE("/charges/:id", s.authorize(authorization.ObjectCharge, authorization.ActionDelete), s.DeleteCharge)
	api.POST("/charges/:id/status", s.authorize(authorization.ObjectCharge, authorization.ActionChargeTransit), s.TransitionCharge)

	// -------- Settlements --------
	api.GET("/settlements", s.authorize(authorization.ObjectSettlement, authorization.ActionView), s.ListSettlements)
	api.POST("/settlements", s.authorize(authorization.ObjectSettlement, authorization.ActionCreate), s.CreateSettlement)
	api.GET("/settlements/:id", s.authorize(authorization.ObjectSettlement, authorization.ActionView), s.GetSettlement)
	api.PATCH("/settlements/:id", s.authorize(authorization.ObjectSettlement, authorization.ActionUpdate), s.UpsertSettlement)
	api.DELETE("/settlements/:id", s.authorize(authorization.ObjectSettlement, authorization.ActionDelete), s.DeleteSettlement)
	api.POST("/settlements/:id/execute", s.authorize(authorization.ObjectSettlement, authorization.ActionSettlementExec), s.ExecuteSettlement)

	// -------- Rates --------
	api.GET("/rates", s.authorize(authorization.ObjectRate, authorization.ActionView), s.ListRates)
	api.POST("/rates", s.authorize(authorization.ObjectRate, authorization.ActionCreate), s.CreateRate)
	api.GET("/rates/active", s.authorize(authorization.ObjectRate, authorization.ActionView), s.GetActiveRate)
	api.GET("/rates/:id", s.authorize(authorization.ObjectRate, authorization.ActionView), s.GetRate)
	api.PATCH("/rates/:id", s.authorize(authorization.ObjectRate, authorization.ActionUpdate), s.UpsertRate)
	api.DELETE("/rates/:id", s.authorize(authorization.ObjectRate, authorization.ActionDelete), s.DeleteRate)

	// -------- Advances --------
	api.GET("/advances", s.authorize(authorization.ObjectAdvance, authorization.ActionView), s.ListAdvances)
	api.POST("/advances", s.authorize(authorization.ObjectAdvance, authorization.ActionCreate), s.CreateAdvance)
	api.GET("/advances/:id", s.authorize(authorization.ObjectAdvance, authorization.ActionView), s.GetAdvance)
	api.PATCH("/advances/:id", s.authorize(authorization.ObjectAdvance, authorization.ActionUpdate), s.UpsertAdvance)
	api.DELETE("/advances/:id", s.authorize(authorization.ObjectAdvance, authorization.ActionDelete), s.DeleteAdvance)
	api.POST("/advances/:id/approve", s.authorize(authorization.ObjectAdvance, authorization.ActionAdvanceApprove), s.ApproveAdvance)
	api.POST("/advances/:id/reject", s.authorize(authorization.ObjectAdvance, authorization.ActionAdvanceReject), s.RejectAdvance)
	api.POST("/advances/:id/settle", s.authorize(authorization.ObjectAdvance, authorization.ActionAdvanceSettle), s.SettleAdvance)

	// -------- Reconciliation --------
	api.GET("/reconciliation", s.authorize(authorization.ObjectReconciliation, authorization.ActionView), s.ListReconciliation)
	api.POST("/reconciliation", s.authorize(authorization.ObjectReconciliation, authorization.ActionReconcileImport), s.AddReconciliationItems)
	api.POST("/reconciliation/import", s.authorize(authorization.ObjectReconciliation, authorization.ActionReconcileImport), s.ImportReconciliation)
	api.POST("/reconciliation/auto-match", s.authorize(authorization.ObjectReconciliation, authorization.ActionReconcileMatch), s.AutoMatchReconciliation)
	api.GET("/reconciliation/:id", s.authorize(authorization.ObjectReconciliation, authorization.ActionView), s.GetReconciliationItem)
	api.DELETE("/reconciliation/:id", s.authorize(authorization.ObjectReconciliation, authorization.ActionDelete), s.DeleteReconciliationItem)

	// -------- Agenda --------
	api.GET("/agenda", s.authorize(authorization.ObjectAgenda, authorization.ActionView), s.ListAgenda)
	api.PUT("/agenda", s.authorize(authorization.ObjectAgenda, authorization.ActionUpdate), s.UpsertAgendaSlot)
	api.DELETE("/agenda/:partnerId/:date", s.authorize(authorization.ObjectAgenda, authorization.ActionDelete), s.DeleteAgendaSlot)

	// -------- Notifications --------
	api.GET("/notifications", s.authorize(authorization.ObjectNotification, authorization.ActionView), s.ListNotifications)
	api.POST("/notifications", s.authorize(authorization.ObjectNotification, authorization.ActionCreate), s.CreateNotification)
	api.POST("/notifications/read-all", s.authorize(authorization.ObjectNotification, authorization.ActionUpdate), s.MarkAllNotificationsRead)
	api.POST("/notifications/:id/read", s.authorize(authorization.ObjectNotification, authorization.ActionUpdate), s.MarkNotificationRead)

	// -------- Catalog --------
	api.GET("/services", s.authorize(authorization.ObjectCatalog, authorization.ActionView), s.ListServices)
	api.GET("/services/:id", s.authorize(authorization.ObjectCatalog, authorization.ActionView), s.GetService)

	// -------- Store --------
	api.GET("/store/export", s.authorize(authorization.ObjectStore, authorization.ActionView), s.ExportStore)
	api.POST("/store/reset", s.authorize(authorization.ObjectStore, authorization.ActionStoreReset), s.ResetStore)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
