package di

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"LiveChart/internal/chart"
	"LiveChart/internal/domain/repository"
	"LiveChart/internal/handler/api"
	"LiveChart/internal/handler/ws"
	mid "LiveChart/internal/middleware"
	internalrepo "LiveChart/internal/repository"
	"LiveChart/internal/service/marketapi"
	"LiveChart/internal/service/ratelimit"
	"LiveChart/internal/usecase"
	"LiveChart/pkg/cache"
	"LiveChart/pkg/config"
	xhttp "LiveChart/pkg/http"
	pkgkafka "LiveChart/pkg/kafka"
	applogger "LiveChart/pkg/logger"
	"LiveChart/pkg/metrics"
)

// ProvideLogger creates the application logger. The cleanup closes the log
// file when output is one.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "livechart",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled. The producer also ships aggregated error logs.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
			OnError: func(err error) {
				l.Warn("log batch publish failed", applogger.Error(err))
			},
		})
	}

	cleanup := func() {
		l.RemoveCollector()
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideEventSink publishes chart events to Kafka, or drops them.
func ProvideEventSink(cfg *config.Config, producer *pkgkafka.Producer) repository.EventSink {
	if producer == nil {
		return internalrepo.NoopSink{}
	}
	return internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic, cfg.Kafka.EventKinds...)
}

// ProvideCache creates the market response cache, or nil for cache.type none.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	newRedis := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, cfg.Cache.Redis.PoolSize/2, 30*time.Second),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch cfg.Cache.Type {
	case "", "none":
		return nil, func() {}, nil
	case "redis":
		rc, err := newRedis()
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	case "layered":
		rc, err := newRedis()
		if err != nil {
			return nil, nil, err
		}
		lc := cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
			cache.WithLayeredMemoryTTL(cfg.Cache.TTL),
		)
		return lc, func() { _ = lc.Close() }, nil
	default:
		mc := cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize),
			cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
		)
		return mc, func() { _ = mc.Close() }, nil
	}
}

// ProvideMarketData creates the market API client behind the optional cache.
func ProvideMarketData(cfg *config.Config, c cache.Service, m repository.Metrics, l *applogger.Logger) repository.MarketData {
	client := marketapi.New(cfg.API.BaseURL, m,
		marketapi.WithTimeout(cfg.API.Timeout),
		marketapi.WithRetry(cfg.API.Retries),
	)
	if c == nil {
		return client
	}
	return marketapi.NewCached(client, c, cfg.Cache.TTL, l)
}

// ProvideTickGuard validates and throttles polled ticks.
func ProvideTickGuard(cfg *config.Config, m repository.Metrics) *mid.TickGuard {
	return mid.NewTickGuard(m, mid.WithMaxRPS(cfg.Chart.MaxTickRPS))
}

func ProvideLivePoller(cfg *config.Config, data repository.MarketData, guard *mid.TickGuard, l *applogger.Logger) *usecase.LivePoller {
	return usecase.NewLivePoller(data, guard, l, cfg.Chart.PollInterval)
}

// ProvideChartController creates the chart lifecycle controller.
func ProvideChartController(
	cfg *config.Config,
	data repository.MarketData,
	poller *usecase.LivePoller,
	sink repository.EventSink,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ChartLifecycleController {
	opts := chart.DefaultOptions()
	opts.Width = cfg.Chart.Width
	opts.Height = cfg.Chart.Height
	return usecase.NewChartLifecycleController(data, poller, sink, m, l, opts)
}

func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideChartHandler creates the chart REST handler.
func ProvideChartHandler(
	cfg *config.Config,
	ctrl *usecase.ChartLifecycleController,
	rl *ratelimit.Limiter,
	l *applogger.Logger,
) *api.ChartEchoHandler {
	return api.NewChartEchoHandler(ctrl, rl, api.SessionLimit{
		Burst:        cfg.Server.SessionLimit.Burst,
		RefillPerSec: cfg.Server.SessionLimit.RefillPerSec,
	}, l)
}

// ProvideHub creates the websocket hub.
func ProvideHub(ctrl *usecase.ChartLifecycleController, l *applogger.Logger) *ws.Hub {
	return ws.NewHub(ctrl, l)
}

// ProvideHTTPServer creates the Echo server with every route registered.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	ctrl *usecase.ChartLifecycleController,
	chartHandler *api.ChartEchoHandler,
	hub *ws.Hub,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{chartHandler, hub, api.Health(ctrl, hub)},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.CORSOrigins...),
		xhttp.WithLogger(l),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetrics(metricsPath, nil),
	)
}
