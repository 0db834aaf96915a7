//go:build wireinject
// +build wireinject

package di

import (
	"PokerAssist/pkg/config"
	"PokerAssist/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideKafkaConsumer,

		// Domain services
		ProvideProfileStore,
		ProvidePolicy,
		ProvideReasoner,

		// Use cases
		ProvideHistoryProcessor,
		ProvideHistoryPipeline,
		ProvideAdvisor,
		ProvideObservationRecorder,
		ProvideKafkaObservationsHandler,

		// Transport
		ProvideRateLimiter,
		ProvideAdvisorHandler,
		ProvideHistoryHandler,
		ProvideRelay,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
