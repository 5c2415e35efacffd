//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"calibrate-backend/application/commands/bus"
	querybus "calibrate-backend/application/queries/bus"
	"calibrate-backend/domain/catalog"
	domainconfig "calibrate-backend/domain/config"
	"calibrate-backend/infrastructure/config"
	"calibrate-backend/pkg/auth"
	"calibrate-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Catalog       *catalog.Catalog
	Tuning        *domainconfig.Store
	TuningWatcher *config.TuningWatcher
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	TokenVerifier auth.TokenVerifier
	RateLimiter   auth.RateLimiter
	Tracer        *observability.Tracer
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCatalog,
	ProvideTuningWatcher,
	ProvideTuning,
	ProvideResponseRepository,
	ProvideStabilityRepository,
	ProvideProfileRepository,
	ProvideEscalationLog,
	ProvideSafetyLog,
	ProvideEventPublisher,
	ProvideMetricsRecorder,
	ProvideTracer,
	ProvideTokenVerifier,
	ProvideRateLimiter,
	ProvideScorer,
	ProvideGenerator,
	ProvideEscalationPolicy,
	ProvideStabilityTracker,
	ProvideCadenceScheduler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideInMemoryCache,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
