package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"calibrate-backend/application/commands"
	"calibrate-backend/application/commands/bus"
	commands_handlers "calibrate-backend/application/commands/handlers"
	"calibrate-backend/application/ports"
	"calibrate-backend/application/queries"
	querybus "calibrate-backend/application/queries/bus"
	queries_handlers "calibrate-backend/application/queries/handlers"
	"calibrate-backend/domain/calibration"
	"calibrate-backend/domain/catalog"
	domainconfig "calibrate-backend/domain/config"
	"calibrate-backend/domain/events"
	"calibrate-backend/infrastructure/config"
	"calibrate-backend/infrastructure/messaging/eventbridge"
	infraobs "calibrate-backend/infrastructure/observability"
	"calibrate-backend/infrastructure/persistence/dynamodb"
	"calibrate-backend/pkg/auth"
	"calibrate-backend/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCatalog loads the question catalog, from file when configured.
func ProvideCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	data, err := os.ReadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	cat, err := catalog.Load(data)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded question catalog from file",
		zap.String("path", cfg.CatalogPath),
		zap.Int("questions", len(cat.Questions)))
	return cat, nil
}

// ProvideTuningWatcher starts the tuning hot-reload watcher when configured,
// or returns nil when tuning is static.
func ProvideTuningWatcher(cfg *config.Config, logger *zap.Logger) (*config.TuningWatcher, error) {
	if !cfg.WatchTuning {
		return nil, nil
	}
	watcher, err := config.NewTuningWatcher(cfg.TuningPath, logger)
	if err != nil {
		return nil, err
	}
	watcher.Start()
	return watcher, nil
}

// ProvideTuning loads the tuning parameters into a store. When the watcher
// is active, a reload swaps the store's pointer, so a tuning change applies
// without a restart and without racing in-flight scoring.
func ProvideTuning(cfg *config.Config, watcher *config.TuningWatcher, logger *zap.Logger) (*domainconfig.Store, error) {
	var tuning *domainconfig.Tuning
	switch {
	case watcher != nil:
		tuning = watcher.Current()
		store := domainconfig.NewStore(tuning)
		watcher.OnChange(store.Replace)
		return store, nil
	case cfg.TuningPath != "":
		data, err := os.ReadFile(cfg.TuningPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read tuning file: %w", err)
		}
		tuning, err = domainconfig.LoadTuning(data)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded tuning overlay from file", zap.String("path", cfg.TuningPath))
	default:
		tuning = domainconfig.DefaultTuning()
	}
	return domainconfig.NewStore(tuning), nil
}

// ProvideResponseRepository creates the raw-response repository
func ProvideResponseRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ResponseRepository {
	return dynamodb.NewResponseRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideStabilityRepository creates the per-user state repository
func ProvideStabilityRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.StabilityRepository {
	return dynamodb.NewStabilityRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideProfileRepository creates the read-only goal-profile repository
func ProvideProfileRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ProfileRepository {
	return dynamodb.NewProfileRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEscalationLog creates the escalation audit log
func ProvideEscalationLog(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EscalationLog {
	return dynamodb.NewEscalationLogRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideSafetyLog creates the safety event log
func ProvideSafetyLog(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SafetyLog {
	return dynamodb.NewSafetyLogRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates the EventBridge publisher, or a local no-op
// publisher when no bus is configured.
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		logger.Warn("No event bus configured, domain events will be dropped")
		return &noopPublisher{logger: logger}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// noopPublisher drops events, for local development without AWS.
type noopPublisher struct {
	logger *zap.Logger
}

func (p *noopPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	for _, e := range evts {
		p.logger.Debug("Dropping domain event", zap.String("eventType", e.GetEventType()))
	}
	return nil
}

// ProvideMetricsRecorder creates the CloudWatch metrics recorder
func ProvideMetricsRecorder(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.MetricsRecorder {
	if !cfg.EnableMetrics {
		return infraobs.NewNoopRecorder()
	}
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	return infraobs.NewCloudWatchRecorder(observability.NewMetricsPublisher(client, namespace, logger))
}

// ProvideTracer creates the X-Ray tracer when tracing is enabled
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("calibrate-backend")
}

// ProvideTokenVerifier picks the auth backend: Supabase when configured,
// local JWT validation otherwise.
func ProvideTokenVerifier(cfg *config.Config, logger *zap.Logger) (auth.TokenVerifier, error) {
	if cfg.SupabaseURL != "" {
		verifier, err := auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create supabase verifier: %w", err)
		}
		logger.Info("Using Supabase token verification")
		return verifier, nil
	}
	logger.Info("Using local JWT token verification")
	return auth.NewLocalVerifier(auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer, "")), nil
}

// ProvideRateLimiter creates the per-user rate limiter. Deployments with a
// rate-limit table share counts across instances through DynamoDB; Lambda
// without one keeps the counters on the main table, which shares the same
// PK/SK schema. The single-binary server falls back to the in-process
// sliding window.
func ProvideRateLimiter(client *awsdynamodb.Client, cfg *config.Config) auth.RateLimiter {
	if cfg.RateLimitPerMinute == 0 {
		return nil
	}
	if cfg.RateLimitTable == "" && !cfg.IsLambda {
		return auth.NewSlidingWindowLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	tableName := cfg.RateLimitTable
	if tableName == "" {
		tableName = cfg.DynamoDBTable
	}
	return auth.NewDistributedUserRateLimiter(client, tableName, cfg.RateLimitPerMinute)
}

// ProvideScorer creates the response scorer
func ProvideScorer(cat *catalog.Catalog, tuning *domainconfig.Store) *calibration.Scorer {
	return calibration.NewScorer(cat, tuning)
}

// ProvideGenerator creates the question set generator
func ProvideGenerator(cat *catalog.Catalog, tuning *domainconfig.Store) *calibration.Generator {
	return calibration.NewGenerator(cat, tuning)
}

// ProvideEscalationPolicy creates the escalation policy
func ProvideEscalationPolicy(tuning *domainconfig.Store) *calibration.EscalationPolicy {
	return calibration.NewEscalationPolicy(tuning)
}

// ProvideStabilityTracker creates the stability tracker
func ProvideStabilityTracker(tuning *domainconfig.Store) *calibration.StabilityTracker {
	return calibration.NewStabilityTracker(tuning)
}

// ProvideCadenceScheduler creates the cadence scheduler
func ProvideCadenceScheduler(tuning *domainconfig.Store) *calibration.CadenceScheduler {
	return calibration.NewCadenceScheduler(tuning)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	scorer *calibration.Scorer,
	escalation *calibration.EscalationPolicy,
	tracker *calibration.StabilityTracker,
	scheduler *calibration.CadenceScheduler,
	responses ports.ResponseRepository,
	stability ports.StabilityRepository,
	escalationLog ports.EscalationLog,
	safetyLog ports.SafetyLog,
	publisher ports.EventPublisher,
	metrics ports.MetricsRecorder,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus()

	orchestrator := commands_handlers.NewSubmitResponsesOrchestrator(
		scorer, escalation, tracker, scheduler,
		responses, stability, escalationLog, safetyLog,
		publisher, metrics, tracer, logger,
	)
	if err := commandBus.Register(&commands.SubmitResponsesCommand{}, orchestrator); err != nil {
		return nil, err
	}

	resetHandler := commands_handlers.NewResetToDailyHandler(scheduler, stability, publisher, metrics, logger)
	if err := commandBus.Register(&commands.ResetToDailyCommand{}, resetHandler); err != nil {
		return nil, err
	}

	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers. The
// question-set read goes through a short-TTL cache; cadence and stability
// reads stay uncached because submissions mutate them.
func ProvideQueryBus(
	generator *calibration.Generator,
	tracker *calibration.StabilityTracker,
	scheduler *calibration.CadenceScheduler,
	tuning *domainconfig.Store,
	profiles ports.ProfileRepository,
	stability ports.StabilityRepository,
	escalationLog ports.EscalationLog,
	safetyLog ports.SafetyLog,
	cache querybus.Cache,
	cfg *config.Config,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	caching := querybus.NewCachingMiddleware(cache, cfg.QuestionSetCacheTTL)
	questionSetHandler := queries_handlers.NewGetQuestionSetHandler(generator, profiles, stability)
	if err := queryBus.Register(&queries.GetQuestionSetQuery{}, caching.Wrap(questionSetHandler)); err != nil {
		return nil, err
	}

	cadenceHandler := queries_handlers.NewGetCadenceHandler(scheduler, stability)
	if err := queryBus.Register(&queries.GetCadenceQuery{}, cadenceHandler); err != nil {
		return nil, err
	}

	stabilityHandler := queries_handlers.NewGetStabilityHandler(tracker, stability, tuning)
	if err := queryBus.Register(&queries.GetStabilityQuery{}, stabilityHandler); err != nil {
		return nil, err
	}

	escalationsHandler := queries_handlers.NewGetEscalationsHandler(escalationLog)
	if err := queryBus.Register(&queries.GetEscalationsQuery{}, escalationsHandler); err != nil {
		return nil, err
	}

	safetyHandler := queries_handlers.NewGetSafetyEventsHandler(safetyLog)
	if err := queryBus.Register(&queries.GetSafetyEventsQuery{}, safetyHandler); err != nil {
		return nil, err
	}

	return queryBus, nil
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() querybus.Cache {
	return NewInMemoryCache()
}
