//go:build wireinject
// +build wireinject

package di

import (
	"github.com/xllucky21/xllucky/pkg/config"
	applogger "github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config, l *applogger.Logger) (*server.App, error) {
	wire.Build(
		// Metrics and cache
		ProvideMetrics,
		ProvideCache,

		// Providers and stores
		ProvideSourceClient,
		ProvideMarketData,
		ProvideFundData,
		ProvideBondStore,
		ProvideDividendStore,
		ProvideFingerprintStore,
		ProvideNotifier,

		// Optional infrastructure clients
		ProvideClickHouseClient,
		ProvideScoreStore,
		ProvideScoreSink,
		ProvideScoreReader,
		ProvideKafkaProducer,
		ProvideScorePublisher,

		// Score fan-out
		ProvideScoreProcessor,
		ProvideScorePipeline,
		ProvideScoreEmitter,
		ProvideScoreHub,
		ProvideScoreEventsHandler,
		ProvideKafkaConsumer,

		// Use cases
		ProvideBondJob,
		ProvideDividendJob,
		ProvideLOFJob,
		ProvideSummaryBuilder,
		ProvidePusher,
		ProvideJobs,
		ProvideReportsUseCase,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandlers,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
