// Package http exposes donors, donations, campaigns and reports as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"donors/internal/core"
	"donors/internal/log"
	"donors/internal/middleware/ratelimit"
	"donors/internal/middleware/security"
	"donors/internal/middleware/trace"
	"donors/internal/payments"
	"donors/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultMajorGiftThreshold applies when /reports/major-gifts has no threshold.
var DefaultMajorGiftThreshold = core.FromMajor(10_000)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the operations the API serves. Charges may be an adapter
// without a charger, in which case POST /charges answers 503.
type Services struct {
	Donors    *services.DonorService
	Donations *services.DonationService
	Campaigns *services.CampaignService
	Reports   *services.ReportService
	Charges   *payments.Adapter
	Store     Pinger
}

type Options struct {
	RateLimitPerMinute int
	// GatewayCredential is sent to the payment gateway; callers never supply it.
	GatewayCredential string
	Logger            *log.Logger
}

type Server struct {
	http.Server
	svc               Services
	gatewayCredential string
	logger            *log.Logger
	started           time.Time
	now               func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	tracer           *trace.Middleware
}

func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	s := &Server{
		svc:               svc,
		gatewayCredential: opts.GatewayCredential,
		logger:            logger,
		started:           time.Now(),
		now:               time.Now,
		rateLimiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector:  security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer,
		log.Middleware(s.logger),
		s.tracer.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.securityDetector.Middleware,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	// Probes bypass the rate limiter.
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited))

		r.Route("/donors", func(r chi.Router) {
			r.Post("/", s.handleAddDonor)
			r.Get("/", s.handleListDonors)
			r.Get("/by-email/{email}", s.handleGetDonorByEmail)
			r.Get("/{id}", s.handleGetDonor)
			r.Post("/{id}/tier", s.handleRecalculateTier)
		})

		r.Route("/donations", func(r chi.Router) {
			r.Post("/", s.handleRecordDonation)
			r.Get("/", s.handleListDonations)
			r.Get("/{id}", s.handleGetDonation)
			r.Post("/{id}/acknowledge", s.handleAcknowledge)
			r.Post("/{id}/receipt", s.handleReceipt)
		})

		r.Post("/charges", s.handleCharge)

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", s.handleCreateCampaign)
			r.Get("/", s.handleListCampaigns)
			r.Get("/{name}", s.handleGetCampaign)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/ltv/{donorID}", s.handleLifetimeValue)
			r.Get("/major-gifts", s.handleMajorGifts)
			r.Get("/campaigns/{name}", s.handleCampaignSummary)
			r.Get("/retention", s.handleRetention)
			r.Get("/tiers", s.handleTierSummary)
		})
	})

	return r
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeErrorMessage(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}
