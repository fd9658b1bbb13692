package router

import (
	"github.com/facturacion/backend/internal/infrastructure/auth"
	"github.com/facturacion/backend/internal/infrastructure/config"
	"github.com/facturacion/backend/internal/infrastructure/logger"
	"github.com/facturacion/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds what NewEngine needs to assemble the HTTP stack
type EngineConfig struct {
	Logger     *zap.Logger
	JWTService *auth.JWTService
	HTTP       config.HTTPConfig
	Tracing    middleware.TracingConfig
	// Meter records HTTP metrics; nil disables them
	Meter    metric.Meter
	Handlers Handlers
}

// NewEngine builds the gin engine with the global middleware chain and every
// API route. Everything under /api/v1 except the health and ping routes
// requires a bearer token.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.Meter, log),
		middleware.CORSWithConfig(cors),
		middleware.Secure(),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	jwtConfig := middleware.DefaultJWTConfig(cfg.JWTService)
	jwtConfig.Logger = log

	r := NewRouter(engine, WithAPIVersion("v1")).
		Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig), middleware.TracingAttributeInjector())
	RegisterAPI(r, cfg.Handlers).Setup()
	RegisterHealthRoutes(engine, cfg.Handlers.System)

	return engine, nil
}
