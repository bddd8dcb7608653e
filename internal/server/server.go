package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loomcommerce/paygate/internal/config"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	gatewaydomain "github.com/loomcommerce/paygate/internal/gateway/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine *gin.Engine
	log    *zap.Logger
	cfg    config.Config
	db     *gorm.DB

	gatewaySvc gatewaydomain.Orchestrator
	sourceSvc  gatewaydomain.SourceService
	setupSvc   gatewaydomain.SetupFlow
	customers  customerdomain.Directory
}

type Params struct {
	fx.In

	Engine    *gin.Engine
	Log       *zap.Logger
	Config    config.Config
	DB        *gorm.DB
	Gateway   gatewaydomain.Orchestrator
	Sources   gatewaydomain.SourceService
	Setup     gatewaydomain.SetupFlow
	Customers customerdomain.Directory
}

func NewEngine(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log.Named("http")))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		engine:     p.Engine,
		log:        p.Log.Named("server"),
		cfg:        p.Config,
		db:         p.DB,
		gatewaySvc: p.Gateway,
		sourceSvc:  p.Sources,
		setupSvc:   p.Setup,
		customers:  p.Customers,
	}
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/payments", s.CreatePayment)
	api.POST("/payments/:reference/capture", s.CapturePayment)
	api.POST("/payments/:reference/refund", s.RefundPayment)
	api.GET("/payments/complete", s.CompletePayment)

	api.POST("/subscriptions", s.CreateSubscription)

	api.POST("/payment-sources", s.CreatePaymentSource)
	api.GET("/payment-sources", s.ListPaymentSources)
	api.DELETE("/payment-sources/:token", s.DeletePaymentSource)

	api.POST("/setup-intents", s.CreateSetupIntent)
	api.GET("/setup-intents/complete", s.CompleteSetupIntent)

	api.GET("/payment-config", s.GetPaymentConfig)

	api.GET("/customers/:reference", s.GetCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)
}

func (s *Server) RegisterSystemRoutes() {
	s.engine.GET("/healthz", s.GetHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    s.cfg.HTTP.Addr,
		Handler: s.engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine, NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
		s.RegisterSystemRoutes()
	}),
	fx.Invoke(RunHTTP),
)
