//go:build wireinject
// +build wireinject

package di

import (
	"LiveChart/pkg/config"
	"LiveChart/pkg/server"

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
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideEventSink,
		ProvideMarketData,

		// Use cases
		ProvideTickGuard,
		ProvideLivePoller,
		ProvideChartController,

		// Transport
		ProvideRateLimiter,
		ProvideChartHandler,
		ProvideHub,
		ProvideHTTPServer,

		// Application server
		server.New,
	)
	return nil, nil, nil
}
