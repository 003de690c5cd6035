package router

import (
	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers mounted by NewEngine
type Handlers struct {
	Session   *handler.SessionHandler
	Sale      *handler.SaleHandler
	Promotion *handler.PromotionHandler
	Product   *handler.ProductHandler
	Stock     *handler.StockHandler
	Customer  *handler.CustomerHandler
	System    *handler.SystemHandler
}

// Options configures the middleware chain of the engine
type Options struct {
	Logger *zap.Logger
	// JWTService enables bearer authentication; nil leaves the API open and
	// the tenant is then taken from X-Tenant-ID alone.
	JWTService     *auth.JWTService
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	TrustedProxies []string
	Tracing        middleware.TracingConfig
	Meter          metric.Meter // nil disables HTTP metrics
	Profiling      bool
	// VerifyLimiter throttles the public receipt verification route
	VerifyLimiter *middleware.RateLimiter
	Swagger       bool
}

// NewEngine builds the gin engine with the full middleware chain and every
// POS route registered.
func NewEngine(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.SecureWithConfig(opts.Security),
		middleware.CORSWithConfig(opts.CORS),
		middleware.BodyLimit(opts.MaxBodySize),
		middleware.TracingWithConfig(opts.Tracing),
		middleware.HTTPMetrics(opts.Meter),
	)

	engine.GET("/health", h.System.Health)
	if opts.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if opts.JWTService != nil {
		r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:       opts.JWTService,
			SkipPaths:        []string{"/api/v1/health"},
			SkipPathPrefixes: []string{"/api/v1/public/"},
			Logger:           log,
		}))
	}
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.JWTEnabled = opts.JWTService != nil
	tenantConfig.Logger = log
	r.Use(
		middleware.TenantMiddlewareWithConfig(tenantConfig),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.Profiling(opts.Profiling),
	)

	r.Register(posRoutes(h)).
		Register(catalogRoutes(h)).
		Register(inventoryRoutes(h)).
		Register(customerRoutes(h)).
		Register(publicRoutes(h, opts.VerifyLimiter)).
		Register(systemRoutes(h))
	r.Setup()

	return engine
}

func posRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("pos", "/pos")

	g.POST("/sessions", h.Session.Open)
	g.GET("/sessions", h.Session.List)
	g.GET("/sessions/current", h.Session.GetCurrent)
	g.GET("/sessions/:id", h.Session.GetByID)
	g.POST("/sessions/:id/close", h.Session.Close)
	g.GET("/sessions/:id/summary", h.Session.Summary)

	g.POST("/sales", h.Sale.Create)
	g.GET("/sales", h.Sale.List)
	g.GET("/sales/:id", h.Sale.GetByID)
	g.POST("/sales/:id/payments", h.Sale.AddPayment)
	g.POST("/sales/:id/cancel", h.Sale.Cancel)
	g.GET("/sales/:id/receipt", h.Sale.Receipt)

	g.POST("/promotions", h.Promotion.Create)
	g.GET("/promotions", h.Promotion.List)
	g.GET("/promotions/:id", h.Promotion.GetByID)
	g.POST("/promotions/:id/deactivate", h.Promotion.Deactivate)
	return g
}

func catalogRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("catalog", "/catalog")
	g.POST("/products", h.Product.Create)
	g.GET("/products", h.Product.List)
	g.GET("/products/:id", h.Product.GetByID)
	g.PUT("/products/:id/price", h.Product.UpdatePrice)
	g.POST("/products/:id/deactivate", h.Product.Deactivate)
	return g
}

func inventoryRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("inventory", "/inventory")
	g.POST("/stock/receive", h.Stock.Receive)
	g.GET("/stock", h.Stock.List)
	return g
}

func customerRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("customers", "/customers")
	g.POST("", h.Customer.Create)
	g.GET("", h.Customer.List)
	g.GET("/:id", h.Customer.GetByID)
	g.POST("/:id/deactivate", h.Customer.Deactivate)
	g.GET("/:id/credit-transactions", h.Customer.CreditTransactions)
	return g
}

// publicRoutes are reachable without a token or tenant
func publicRoutes(h Handlers, limiter *middleware.RateLimiter) *DomainGroup {
	g := NewDomainGroup("public", "/public")
	if limiter != nil {
		g.Use(middleware.RateLimit(limiter))
	}
	g.GET("/sales/verify/:token", h.Sale.Verify)
	return g
}

func systemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("system", "")
	g.GET("/health", h.System.Health)
	g.GET("/system/info", h.System.GetSystemInfo)
	return g
}
