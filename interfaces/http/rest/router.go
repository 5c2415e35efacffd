package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"calibrate-backend/application/commands/bus"
	querybus "calibrate-backend/application/queries/bus"
	"calibrate-backend/interfaces/http/rest/handlers"
	"calibrate-backend/interfaces/http/rest/middleware"
	"calibrate-backend/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus  *bus.CommandBus
	queryBus    *querybus.QueryBus
	verifier    auth.TokenVerifier
	rateLimiter auth.RateLimiter
	enableCORS  bool
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	verifier auth.TokenVerifier,
	rateLimiter auth.RateLimiter,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus:  commandBus,
		queryBus:    queryBus,
		verifier:    verifier,
		rateLimiter: rateLimiter,
		enableCORS:  enableCORS,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.calibrate.app"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1/calibration", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.verifier, rt.rateLimiter, rt.logger))

		calibrationHandler := handlers.NewCalibrationHandler(rt.commandBus, rt.queryBus, rt.logger)
		r.Get("/question-set", calibrationHandler.GetQuestionSet)
		r.Get("/cadence", calibrationHandler.GetCadence)
		r.Get("/stability", calibrationHandler.GetStability)
		r.Get("/escalations", calibrationHandler.GetEscalations)
		r.Get("/safety-events", calibrationHandler.GetSafetyEvents)
		r.Post("/cadence/reset", calibrationHandler.ResetCadence)

		// The submission pipeline fans out to DynamoDB and EventBridge;
		// shed load when those stay down.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("submissions"), rt.logger))
			r.Post("/submissions", calibrationHandler.SubmitResponses)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
