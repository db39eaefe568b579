// api/routes/router.go
package routes

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"autoclaim/internal/auth"
	"autoclaim/internal/autoclaim"
	"autoclaim/internal/bookings"
	"autoclaim/internal/claims"
	"autoclaim/internal/compensation"
	"autoclaim/internal/eligibility"
	"autoclaim/internal/extractor"
	"autoclaim/internal/shared/config"
	"autoclaim/internal/shared/database"
	"autoclaim/internal/trains"
	"autoclaim/pkg/cache"
	"autoclaim/pkg/logger"
	"autoclaim/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds all route dependencies
type Router struct {
	config      *config.Config
	db          *database.DB
	rateLimiter *ratelimit.RateLimiter
	logger      *logger.Logger

	authController auth.Controller
	users          *auth.ContactDirectory
	bookingRepo    bookings.Repository
	bookingService bookings.Service
	claimRepo      claims.Repository
	claimService   claims.Service
	bus            *claims.Bus
	feed           autoclaim.FeedRefresher
	pipeline       *autoclaim.Pipeline
	jobs           *autoclaim.JobProcessor
}

// NewRouter builds every service the API and the background jobs share.
// rateLimiter may be nil.
func NewRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, log *logger.Logger) (*Router, error) {
	if log == nil {
		log = logger.GetDefault()
	}
	r := &Router{
		config:      cfg,
		db:          db,
		rateLimiter: rateLimiter,
		logger:      log,
	}
	if err := r.build(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Router) build() error {
	pg := r.db.GetPostgreSQL()
	pc := r.config.Pipeline

	calc, err := compensation.NewCalculator(compensation.DefaultTiers, compensation.NewConverter(pc.EURToGBPRate))
	if err != nil {
		return fmt.Errorf("failed to build compensation calculator: %w", err)
	}

	policy := eligibility.Policy{
		ClaimWindow:    pc.ClaimWindow,
		DeadlineMonths: pc.DeadlineMonths,
		MinimumPayout: map[compensation.Currency]float64{
			compensation.EUR: pc.MinimumPayoutEUR,
			compensation.GBP: pc.MinimumPayoutGBP,
		},
	}
	if pc.PayoutCurrency != "" {
		currency, err := compensation.ParseCurrency(pc.PayoutCurrency)
		if err != nil {
			return err
		}
		policy.PayoutCurrency = currency
	}
	evaluator := eligibility.NewEvaluator(calc, policy)

	// Auth
	authRepo := auth.NewRepository(pg)
	r.authController = auth.NewController(auth.NewService(authRepo, r.config, r.logger))
	r.users = auth.NewContactDirectory(authRepo)

	// Bookings
	ex, err := extractor.New()
	if err != nil {
		return err
	}
	r.bookingRepo = bookings.NewRepository(pg)
	r.bookingService = bookings.NewService(r.bookingRepo, ex, evaluator, pc.DefaultTicketPrice, r.logger)

	// Claims; observers are attached by the caller once notifications are up.
	r.bus = claims.NewBus(r.logger)
	r.bus.Register(claims.ObserverFunc(func(ctx context.Context, e claims.Event) error {
		r.logger.DebugWithContext(ctx, "Claim event", map[string]interface{}{
			"type":     string(e.Type),
			"claim_id": e.ClaimID.String(),
			"to":       e.To.String(),
		})
		return nil
	}))
	r.claimRepo = claims.NewRepository(pg)
	lifecycle := claims.NewLifecycle(r.claimRepo, r.bus, r.logger)
	r.claimService = claims.NewService(r.claimRepo, lifecycle, r.bookingRepo, r.users, pc.ClaimPortalURL)

	// Trains, cached in Redis between feed refreshes
	redisCache := cache.NewService(r.db.GetRedisClient())
	trainRepo := trains.NewCachedRepository(trains.NewRepository(pg), redisCache, r.config.Redis.TrainCacheTTL)
	if pc.FeedURL != "" {
		r.feed = trains.NewService(trainRepo, trains.NewHTTPFeedSource(pc.FeedURL, pc.FeedTimeout), r.logger)
	}
	matcher := trains.NewMatcher(trainRepo, trains.Region(strings.ToUpper(pc.Region)))

	// Pipeline
	r.pipeline = autoclaim.NewPipeline(
		r.bookingRepo,
		r.claimRepo,
		lifecycle,
		matcher,
		trains.NewCompletionEvaluator(pc.CompletionBuffer),
		evaluator,
		redisCache,
		autoclaim.Config{
			BatchSize:   pc.SweepBatchSize,
			NoticeAhead: pc.DeadlineNoticeAhead,
			NoticeTTL:   r.config.Redis.DeadlineNoticeTTL,
		},
		r.logger,
	)
	r.jobs = autoclaim.NewJobProcessor(r.pipeline, r.feed, &autoclaim.JobConfig{
		FeedPollInterval:   pc.FeedPollInterval,
		SweepInterval:      pc.SweepInterval,
		DeadlineCheckEvery: pc.DeadlineCheckEvery,
	}, r.logger)

	return nil
}

// EventBus is where claim lifecycle observers register.
func (r *Router) EventBus() *claims.Bus {
	return r.bus
}

// Users resolves claim owners for notifications.
func (r *Router) Users() *auth.ContactDirectory {
	return r.users
}

// Claims is the claim store notifications read from.
func (r *Router) Claims() claims.Repository {
	return r.claimRepo
}

// Jobs returns the background scheduler; the caller starts and stops it.
func (r *Router) Jobs() *autoclaim.JobProcessor {
	return r.jobs
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		auth.SetupAuthRoutes(api, r.authController, r.config, r.limit(ratelimit.RateLimitTypeAuth))
		bookings.SetupBookingRoutes(api, bookings.NewController(r.bookingService), r.config, r.limit(ratelimit.RateLimitTypeParse))
		claims.SetupClaimRoutes(api, claims.NewController(r.claimService), r.config, r.limit(ratelimit.RateLimitTypeSubmit))
		autoclaim.SetupPipelineRoutes(api, autoclaim.NewController(r.pipeline, r.feed, r.jobs), r.config)
	}
}

func (r *Router) limit(limitType ratelimit.RateLimitType) gin.HandlerFunc {
	return ratelimit.ForType(r.rateLimiter, limitType)
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		components := r.db.Health(ctx)
		status, code := "healthy", http.StatusOK
		for _, h := range components {
			if !h.Healthy {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":     status,
			"components": components,
			"timestamp":  time.Now(),
			"service":    "autoclaim",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
			"jobs":        r.jobs.GetJobStatus(),
		})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Route definitions for reference:
//
// GET  /health  - Postgres and Redis reachability
// GET  /ping    - Liveness
// GET  /status  - API version and background job state
// GET  /metrics - Prometheus scrape endpoint
//
// Feature routes are listed at the bottom of each feature's router.go.
