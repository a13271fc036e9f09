package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnloop/learnloop/internal/config"
	"github.com/learnloop/learnloop/internal/course"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	"github.com/learnloop/learnloop/internal/entitlement"
	entitlementdomain "github.com/learnloop/learnloop/internal/entitlement/domain"
	"github.com/learnloop/learnloop/internal/observability"
	obslogger "github.com/learnloop/learnloop/internal/observability/logger"
	obstracing "github.com/learnloop/learnloop/internal/observability/tracing"
	"github.com/learnloop/learnloop/internal/payment"
	paymentdomain "github.com/learnloop/learnloop/internal/payment/domain"
	"github.com/learnloop/learnloop/internal/pricing"
	pricingdomain "github.com/learnloop/learnloop/internal/pricing/domain"
	"github.com/learnloop/learnloop/internal/promotion"
	promotiondomain "github.com/learnloop/learnloop/internal/promotion/domain"
	"github.com/learnloop/learnloop/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	course.Module,
	promotion.Module,
	pricing.Module,
	payment.Module,
	entitlement.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	courseSvc      coursedomain.Service
	promotionSvc   promotiondomain.Service
	pricingSvc     pricingdomain.Service
	paymentSvc     paymentdomain.Service
	entitlementSvc entitlementdomain.Service
	limiter        *ratelimit.TokenBucket
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	CourseSvc      coursedomain.Service
	PromotionSvc   promotiondomain.Service
	PricingSvc     pricingdomain.Service
	PaymentSvc     paymentdomain.Service
	EntitlementSvc entitlementdomain.Service
	Limiter        *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		courseSvc:      p.CourseSvc,
		promotionSvc:   p.PromotionSvc,
		pricingSvc:     p.PricingSvc,
		paymentSvc:     p.PaymentSvc,
		entitlementSvc: p.EntitlementSvc,
		limiter:        p.Limiter,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/pricing/quote", s.HandleQuote)
	r.GET("/courses", s.HandleListCourses)
	r.GET("/courses/:id", s.HandleGetCourse)
	r.GET("/courses/:id/access", s.OptionalAuth(), s.HandleCourseAccess)

	paymentLimit := ratelimit.GinMiddleware(s.limiter, s.log, 5, 10)

	pay := r.Group("/payment", s.AuthRequired())
	pay.POST("/order", paymentLimit, s.HandleCreateOrder)
	pay.PUT("/verify", paymentLimit, s.HandleVerifyPayment)
	pay.GET("/refund-eligibility/:id", s.HandleRefundEligibility)

	// Webhooks authenticate with the gateway signature, not a user.
	r.POST("/payment/webhook", s.HandlePaymentWebhook)

	admin := r.Group("/admin", s.AuthRequired())
	admin.POST("/courses", s.HandleCreateCourse)
	admin.PUT("/courses/:id/publish", s.HandlePublishCourse)
	admin.POST("/sales", s.HandleCreateSale)
	admin.POST("/coupons", s.HandleCreateCoupon)
}

// OptionalAuth resolves the user when a valid token is present but lets
// anonymous requests through. Entitlement decides what they may see.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	authRequired := s.AuthRequired()
	return func(c *gin.Context) {
		if bearerToken(c) == "" {
			c.Next()
			return
		}
		authRequired(c)
	}
}
