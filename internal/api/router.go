package api

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/aijournal/journal-api/docs"
	"github.com/aijournal/journal-api/internal/api/handler"
	"github.com/aijournal/journal-api/internal/api/middleware"
	"github.com/aijournal/journal-api/internal/core/ports"
	"github.com/aijournal/journal-api/internal/infrastructure/http/handlers"
)

// Dependencies is everything the HTTP layer needs from the composition root.
type Dependencies struct {
	AuthService  ports.AuthService
	EntryService ports.EntryService
	Logger       zerolog.Logger

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string
	// AuthRateLimit caps requests per second per client IP on /auth; zero
	// disables the limit.
	AuthRateLimit float64
	// Probes are run by the readiness endpoint, keyed by dependency name.
	Probes map[string]handlers.Probe
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.RecoverWithConfig(echomiddleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			deps.Logger.Error().Err(err).Bytes("stack", stack).Str("path", c.Path()).Msg("panic recovered")
			return err
		},
	}))
	if len(deps.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: deps.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAuthorization,
				handler.HeaderIdempotencyKey,
			},
		}))
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	entryHandler := handler.NewEntryHandler(deps.EntryService)
	authMiddleware := middleware.Auth(deps.AuthService)

	// --- Auth routes ---
	authGroup := e.Group("/auth")
	if deps.AuthRateLimit > 0 {
		authGroup.Use(authRateLimiter(deps.AuthRateLimit))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me, authMiddleware)

	// --- Entry routes (/journal is the path the original web client uses) ---
	for _, prefix := range []string{"/entries", "/journal"} {
		g := e.Group(prefix, authMiddleware)
		g.GET("", entryHandler.List)
		g.POST("", entryHandler.Create)
		g.GET("/:id", entryHandler.Get)
		g.PUT("/:id", entryHandler.Update)
		g.DELETE("/:id", entryHandler.Delete)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Probes)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// authRateLimiter limits requests per client IP with a token bucket.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})
}
