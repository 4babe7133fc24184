package http

import (
	"context"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	echo "github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/DivyanshuTiwari-1/makeupai/internal/billing"
	"github.com/DivyanshuTiwari-1/makeupai/internal/config"
	"github.com/DivyanshuTiwari-1/makeupai/internal/credit"
	"github.com/DivyanshuTiwari-1/makeupai/internal/http/middleware"
	"github.com/DivyanshuTiwari-1/makeupai/internal/inference"
	"github.com/DivyanshuTiwari-1/makeupai/internal/metrics"
	"github.com/DivyanshuTiwari-1/makeupai/internal/ratelimit"
	"github.com/DivyanshuTiwari-1/makeupai/internal/repository"
	"github.com/DivyanshuTiwari-1/makeupai/internal/session"
)

type Server struct{ e *echo.Echo }

// NewServer wires repositories, the credit ledger, the auth gate, and all
// route handlers. clickhouseDB and rds may be nil: analytics is skipped and
// the in-process rate limiter is used.
func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	profilesRepo := repository.NewProfilesRepository(mysqlDB)
	gensRepo := repository.NewGenerationsRepository(mysqlDB)

	// analytics (ClickHouse, optional)
	var analyticsRepo repository.BillingEventsRepository
	if clickhouseDB != nil {
		analyticsRepo = repository.NewBillingEventsRepository(clickhouseDB)
	}

	// services
	ledger := credit.NewLedger(profilesRepo)
	resolver := session.NewResolver(session.NewIntrospector(cfg.Auth), cfg.Auth.SessionCookie)
	billingClient := billing.NewClient(cfg.Stripe)
	generator := generatorOrNil(inference.NewClient(cfg.Inference))

	var directory billing.CustomerDirectory
	if billingClient != nil {
		directory = billingClient
	}
	reconciler := billing.NewReconciler(ledger, directory, analyticsRepo)

	// rate limiter: shared counters when Redis is configured, else local
	var limiter ratelimit.Limiter
	if rds != nil {
		limiter = ratelimit.NewRedisLimiter(rds, cfg.RateLimit.RedisPrefix, cfg.RateLimit.Window)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Window)
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// every other route passes through the auth gate; the classifier
	// exempts bypassed and public paths
	e.Use(middleware.AuthGate(middleware.AuthGateConfig{
		Resolver:  resolver,
		Limiter:   limiter,
		PageLimit: cfg.RateLimit.PagePerWin,
		APILimit:  cfg.RateLimit.APIPerWin,
	}))

	// public: authenticated by the provider signature, never by a session
	e.POST("/api/stripe/webhook", webhookHandler(cfg.Stripe.WebhookSecret, reconciler))

	// protected
	e.GET("/api/user/credits", creditsHandler(ledger))
	e.GET("/api/user/subscription", subscriptionHandler(ledger, verifierOrNil(billingClient)))
	e.POST("/api/stripe/checkout", checkoutHandler(ledger, billingClient))
	e.POST("/api/generate", generateHandler(ledger, gensRepo, generator))
	e.GET("/api/history", historyHandler(gensRepo))
	e.GET("/api/styles", stylesHandler())

	return &Server{e: e}
}

// generatorOrNil keeps the nil check honest: a nil *Client stuffed into the
// interface would not compare equal to nil.
func generatorOrNil(c *inference.Client) inference.Generator {
	if c == nil {
		return nil
	}
	return c
}

func verifierOrNil(c *billing.Client) subscriptionVerifier {
	if c == nil {
		return nil
	}
	return c
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
