package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/cuadra/internal/audit"
	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	"github.com/smallbiznis/cuadra/internal/auth/password"
	"github.com/smallbiznis/cuadra/internal/catalog"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/clock"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/cuadratura"
	cuadraturadomain "github.com/smallbiznis/cuadra/internal/cuadratura/domain"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/observability"
	obsmiddleware "github.com/smallbiznis/cuadra/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cuadra/internal/observability/metrics"
	obstracing "github.com/smallbiznis/cuadra/internal/observability/tracing"
	"github.com/smallbiznis/cuadra/internal/occupancy"
	occupancydomain "github.com/smallbiznis/cuadra/internal/occupancy/domain"
	"github.com/smallbiznis/cuadra/internal/ratelimit"
	"github.com/smallbiznis/cuadra/internal/reconcile"
	"github.com/smallbiznis/cuadra/internal/sales"
	salesdomain "github.com/smallbiznis/cuadra/internal/sales/domain"
	"github.com/smallbiznis/cuadra/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	audit.Module,
	catalog.Module,
	reconcile.Module,
	cuadratura.Module,
	occupancy.Module,
	sales.Module,
	session.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(providePasswordGate),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
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

func providePasswordGate(cfg config.Config) (*password.Gate, error) {
	gate := password.NewGate(cfg.PortalPassword)
	if err := gate.Validate(); err != nil {
		return nil, fmt.Errorf("PORTAL_PASSWORD: %w", err)
	}
	return gate, nil
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", addr))
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
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	reader        erp.Reader
	sessions      *session.Manager
	cookie        *session.Cookie
	gate          *password.Gate
	loginLimiter  *ratelimit.LoginLimiter
	runLocker     *ratelimit.RunLocker
	catalogSvc    catalogdomain.Service
	cuadraturaSvc cuadraturadomain.Service
	occupancySvc  occupancydomain.Service
	salesSvc      salesdomain.Service
	auditSvc      auditdomain.Service
	obsMetrics    *obsmetrics.Metrics
	clock         clock.Clock
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Reader        erp.Reader
	Sessions      *session.Manager
	Cookie        *session.Cookie
	Gate          *password.Gate
	LoginLimiter  *ratelimit.LoginLimiter
	RunLocker     *ratelimit.RunLocker
	CatalogSvc    catalogdomain.Service
	CuadraturaSvc cuadraturadomain.Service
	OccupancySvc  occupancydomain.Service
	SalesSvc      salesdomain.Service
	AuditSvc      auditdomain.Service
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
	Clock         clock.Clock         `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		reader:        p.Reader,
		sessions:      p.Sessions,
		cookie:        p.Cookie,
		gate:          p.Gate,
		loginLimiter:  p.LoginLimiter,
		runLocker:     p.RunLocker,
		catalogSvc:    p.CatalogSvc,
		cuadraturaSvc: p.CuadraturaSvc,
		occupancySvc:  p.OccupancySvc,
		salesSvc:      p.SalesSvc,
		auditSvc:      p.AuditSvc,
		obsMetrics:    p.ObsMetrics,
		clock:         clk,
	}
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

// RegisterRoutes mounts the portal login and the authenticated report API.
func (s *Server) RegisterRoutes() {
	auth := s.engine.Group("/auth")
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)

	api := s.engine.Group("/api")
	api.Use(s.SessionRequired())

	api.GET("/capabilities", s.GetCapabilities)
	api.GET("/catalog/options", s.GetCatalogOptions)

	api.POST("/cuadratura/search", s.SearchCuadratura)
	api.GET("/cuadratura", s.GetCuadratura)
	api.DELETE("/cuadratura", s.ClearCuadratura)
	api.GET("/cuadratura/export/:table", s.ExportCuadratura)

	api.GET("/occupancy", s.GetOccupancy)
	api.GET("/occupancy/export", s.ExportOccupancy)

	api.GET("/sales/destinations", s.GetSalesByDestination)
	api.GET("/sales/agencies", s.GetSalesByAgency)
	api.GET("/sales/teams", s.ListSalesTeams)
	api.GET("/sales/export", s.ExportSales)

	api.GET("/runs", s.ListRuns)
}
