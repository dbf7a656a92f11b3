package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safeguardhq/safeguard/internal/approval"
	approvaldomain "github.com/safeguardhq/safeguard/internal/approval/domain"
	"github.com/safeguardhq/safeguard/internal/audit"
	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
	"github.com/safeguardhq/safeguard/internal/authorization"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/config"
	"github.com/safeguardhq/safeguard/internal/customer"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	"github.com/safeguardhq/safeguard/internal/incident"
	incidentdomain "github.com/safeguardhq/safeguard/internal/incident/domain"
	"github.com/safeguardhq/safeguard/internal/ledger"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	"github.com/safeguardhq/safeguard/internal/liveevents"
	"github.com/safeguardhq/safeguard/internal/observability"
	obsmiddleware "github.com/safeguardhq/safeguard/internal/observability/logger"
	obsmetrics "github.com/safeguardhq/safeguard/internal/observability/metrics"
	obstracing "github.com/safeguardhq/safeguard/internal/observability/tracing"
	"github.com/safeguardhq/safeguard/internal/outlet"
	outletdomain "github.com/safeguardhq/safeguard/internal/outlet/domain"
	"github.com/safeguardhq/safeguard/internal/product"
	productdomain "github.com/safeguardhq/safeguard/internal/product/domain"
	"github.com/safeguardhq/safeguard/internal/providers"
	"github.com/safeguardhq/safeguard/internal/providers/pdf"
	"github.com/safeguardhq/safeguard/internal/ratelimit"
	"github.com/safeguardhq/safeguard/internal/risk"
	"github.com/safeguardhq/safeguard/internal/terminal"
	terminaldomain "github.com/safeguardhq/safeguard/internal/terminal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	customer.Module,
	product.Module,
	outlet.Module,
	ledger.Module,
	incident.Module,
	risk.Module,
	approval.Module,
	liveevents.Module,
	providers.Module,
	ratelimit.Module,
	terminal.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	genID  *snowflake.Node

	policies *config.PolicyHolder

	authzSvc    authorization.Service
	auditSvc    auditdomain.Service
	terminalSvc terminaldomain.Service
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
	outletSvc   outletdomain.Service
	ledgerSvc   ledgerdomain.Service
	incidentSvc incidentdomain.Service
	approvalSvc approvaldomain.Service

	hub         *liveevents.Hub
	pdfProvider pdf.Provider
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	GenID *snowflake.Node

	Policies *config.PolicyHolder

	AuthzSvc    authorization.Service
	AuditSvc    auditdomain.Service
	TerminalSvc terminaldomain.Service
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
	OutletSvc   outletdomain.Service
	LedgerSvc   ledgerdomain.Service
	IncidentSvc incidentdomain.Service
	ApprovalSvc approvaldomain.Service

	Hub         *liveevents.Hub
	PDFProvider pdf.Provider
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		db:          p.DB,
		genID:       p.GenID,
		policies:    p.Policies,
		authzSvc:    p.AuthzSvc,
		auditSvc:    p.AuditSvc,
		terminalSvc: p.TerminalSvc,
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
		outletSvc:   p.OutletSvc,
		ledgerSvc:   p.LedgerSvc,
		incidentSvc: p.IncidentSvc,
		approvalSvc: p.ApprovalSvc,
		hub:         p.Hub,
		pdfProvider: p.PDFProvider,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerTerminalRoutes()
	svc.registerManagerRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerTerminalRoutes() {
	api := s.engine.Group("/api", s.KeyAuthRequired())

	api.POST("/terminal/identify",
		s.requireCapability(authorization.ObjectTerminal, authorization.ActionTerminalIdentify),
		s.IdentifyCustomer)
	api.POST("/terminal/purchase",
		s.requireCapability(authorization.ObjectTerminal, authorization.ActionTerminalPurchase),
		s.PurchaseProduct)

	api.GET("/products",
		s.requireCapability(authorization.ObjectProduct, authorization.ActionProductView),
		s.ListProducts)
	api.GET("/products/:id",
		s.requireCapability(authorization.ObjectProduct, authorization.ActionProductView),
		s.GetProductByID)

	api.GET("/purchases/:id/receipt.pdf",
		s.requireCapability(authorization.ObjectPurchase, authorization.ActionReceiptView),
		s.GetReceiptPDF)
}

func (s *Server) registerManagerRoutes() {
	api := s.engine.Group("/api", s.KeyAuthRequired())

	api.GET("/approvals/pending",
		s.requireCapability(authorization.ObjectApproval, authorization.ActionApprovalView),
		s.ListPendingApprovals)
	api.POST("/approvals/:id/decision",
		s.requireCapability(authorization.ObjectApproval, authorization.ActionApprovalDecide),
		s.DecideApproval)
	api.GET("/approvals/ws",
		s.requireCapability(authorization.ObjectApproval, authorization.ActionApprovalView),
		s.ApprovalConsoleWS)

	api.GET("/purchases/recent",
		s.requireCapability(authorization.ObjectPurchase, authorization.ActionPurchaseView),
		s.ListRecentPurchases)
	api.GET("/purchases/stream",
		s.requireCapability(authorization.ObjectPurchase, authorization.ActionPurchaseStream),
		s.StreamPurchases)
	api.GET("/purchases/:id",
		s.requireCapability(authorization.ObjectPurchase, authorization.ActionPurchaseView),
		s.GetPurchaseByID)

	api.GET("/customers/:id",
		s.requireCapability(authorization.ObjectCustomer, authorization.ActionCustomerView),
		s.GetCustomerByID)
	api.GET("/customers/:id/purchases",
		s.requireCapability(authorization.ObjectPurchase, authorization.ActionPurchaseView),
		s.ListCustomerPurchases)
	api.GET("/customers/:id/incidents",
		s.requireCapability(authorization.ObjectIncident, authorization.ActionIncidentView),
		s.ListCustomerIncidents)

	api.POST("/incidents",
		s.requireCapability(authorization.ObjectIncident, authorization.ActionIncidentReport),
		s.ReportIncident)

	api.GET("/outlets",
		s.requireCapability(authorization.ObjectOutlet, authorization.ActionOutletView),
		s.ListOutlets)
}

func (s *Server) registerAdminRoutes() {
	api := s.engine.Group("/api", s.KeyAuthRequired())

	api.POST("/customers",
		s.requireCapability(authorization.ObjectCustomer, authorization.ActionCustomerCreate),
		s.CreateCustomer)
	api.POST("/products",
		s.requireCapability(authorization.ObjectProduct, authorization.ActionProductManage),
		s.CreateProduct)
	api.DELETE("/products/:id",
		s.requireCapability(authorization.ObjectProduct, authorization.ActionProductManage),
		s.DeactivateProduct)
	api.POST("/outlets",
		s.requireCapability(authorization.ObjectOutlet, authorization.ActionOutletManage),
		s.CreateOutlet)
	api.GET("/audit-logs",
		s.requireCapability(authorization.ObjectAuditLog, authorization.ActionAuditLogView),
		s.ListAuditLogs)
}
