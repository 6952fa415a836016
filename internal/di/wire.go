//go:build wireinject
// +build wireinject

package di

import (
	"Epoch/pkg/config"
	"Epoch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCacheService,

		// Repositories
		ProvideBarStore,
		ProvideZoneStore,
		ProvidePublisher,
		ProvideBarCache,

		// Market data
		ProvideMarketData,
		ProvideMarketStream,

		// Engine
		ProvideEngine,

		// Use cases
		ProvideSnapshotBuilder,
		ProvideAnalyzer,
		ProvideBacktester,
		ProvideEdgeMonitor,
		ProvideLiveCollector,
		ProvideGradingQueue,
		ProvideKafkaAnalysesHandler,

		// HTTP API
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
