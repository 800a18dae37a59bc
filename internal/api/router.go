package api

import (
	"fmt"
	"net/http"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/rupagen/marketplace-api/docs"
	"github.com/rupagen/marketplace-api/internal/api/apierror"
	"github.com/rupagen/marketplace-api/internal/api/handler"
	"github.com/rupagen/marketplace-api/internal/api/middleware"
	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

const (
	// multipart framing on top of the largest accepted file
	bodyOverhead        = 1 << 20
	generateLimiterTTL  = 3 * time.Minute
	defaultGenerateRate = 10
)

// Options are the transport-level knobs.
type Options struct {
	MaxUploadBytes        int64
	GenerateRatePerMinute int
	// Sentry enables the sentry-go echo middleware. sentry.Init must have
	// been called.
	Sentry bool
	// Registerer receives the HTTP metrics. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Deps are the services and probes the router wires into handlers.
type Deps struct {
	Auth    ports.AuthService
	Users   ports.UserService
	Uploads ports.UploadService
	Studio  ports.StudioService
	Tokens  ports.TokenIssuer

	Mongo handler.Pinger
	// Redis is nil when no redis is configured.
	Redis handler.Pinger

	Log     zerolog.Logger
	Options Options
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = apierror.NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	if d.Options.Sentry {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}
	registerer := d.Options.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "rupagen",
		Registerer: registerer,
	}))
	if d.Options.MaxUploadBytes > 0 {
		e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dB", d.Options.MaxUploadBytes+bodyOverhead)))
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Options.MaxUploadBytes)
	userHandler := handler.NewUserHandler(d.Users)
	uploadHandler := handler.NewUploadHandler(d.Uploads, d.Options.MaxUploadBytes)
	studioHandler := handler.NewStudioHandler(d.Studio)
	requireAuth := middleware.Auth(d.Tokens)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// --- Upload routes (public) ---
	upload := api.Group("/upload")
	upload.POST("/cloudinary", uploadHandler.Upload)
	upload.GET("/cloudinary", uploadHandler.UploadUsage)
	upload.POST("/user-document", uploadHandler.UploadUserDocument)
	upload.GET("/user-document", uploadHandler.UserDocumentUsage)
	upload.POST("/signature", uploadHandler.Signature)
	upload.GET("/signature", uploadHandler.SignatureUsage)

	// --- Studio routes ---
	api.POST("/generate", studioHandler.Generate, generateLimiter(d.Options.GenerateRatePerMinute))

	studio := api.Group("/studio", requireAuth)
	studio.GET("/titles", studioHandler.ListTitles)
	studio.POST("/titles", studioHandler.CreateTitle)
	studio.GET("/titles/:id/messages", studioHandler.History)
	studio.POST("/titles/:id/messages", studioHandler.SendMessage)

	// --- User routes ---
	users := api.Group("/users", requireAuth)
	users.GET("/me", userHandler.Me)
	users.PATCH("/me", userHandler.UpdateMe)
	users.PUT("/:id/role", userHandler.SetRole, adminOnly)
	users.POST("/:id/verify", userHandler.Verify, adminOnly)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// generateLimiter throttles image generation per client IP.
func generateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = defaultGenerateRate
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: generateLimiterTTL,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many image requests, try again later")
		},
	})
}
