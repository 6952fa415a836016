package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	domrepo "Epoch/internal/domain/repository"
	domsvc "Epoch/internal/domain/service"
	"Epoch/internal/engine"
	"Epoch/internal/handler/api"
	mid "Epoch/internal/middleware"
	internalrepo "Epoch/internal/repository"
	icache "Epoch/internal/service/cache"
	"Epoch/internal/service/polygon"
	"Epoch/internal/services/grading"
	"Epoch/internal/usecase"
	pkgcache "Epoch/pkg/cache"
	pkgch "Epoch/pkg/clickhouse"
	"Epoch/pkg/config"
	pkgkafka "Epoch/pkg/kafka"
	applogger "Epoch/pkg/logger"
	"Epoch/pkg/metrics"
	"Epoch/pkg/queue"
	"Epoch/pkg/server"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideEngine loads the engine tuning file and constructs the engine.
func ProvideEngine(cfg *config.Config) (*engine.Engine, error) {
	ecfg, err := engine.LoadConfig(cfg.Engine.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return engine.New(ecfg)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// warehouse schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
// logPublisher adapts the Kafka producer to the log collector's
// publisher interface. Aggregated log batches carry no partition key.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (p logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "epoch.logs",
		Publisher:      logPublisher{producer: producer},
	})
	return producer, nil
}

// consumerHooks builds the consumer hook chain: trace propagation from
// message headers plus handle latency and error accounting.
func consumerHooks(l *applogger.Logger, m domrepo.Metrics) pkgkafka.ConsumerHook {
	tracing := pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
	}
	observe := pkgkafka.HookFuncs{
		After: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("kafka_handle", time.Since(start).Seconds())
			}
		},
		Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			m.RecordError("kafka_consumer")
			l.Warn("kafka handle failed",
				applogger.String("topic", topic),
				applogger.Error(err),
			)
		},
	}
	return pkgkafka.NewHookChain(tracing, observe)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, m domrepo.Metrics) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(consumerHooks(l, m))
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideBarStore creates the ClickHouse bar warehouse.
func ProvideBarStore(ch *pkgch.Client, l *applogger.Logger) domrepo.BarStore {
	store := internalrepo.NewCHBarStore(ch)
	store.SetLogger(l)
	return store
}

// ProvideZoneStore creates the ClickHouse zone warehouse.
func ProvideZoneStore(ch *pkgch.Client, l *applogger.Logger) domrepo.ZoneStore {
	store := internalrepo.NewCHZoneStore(ch)
	store.SetLogger(l)
	return store
}

// ProvidePublisher creates the Kafka analyses publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideMarketData creates the Polygon REST client.
func ProvideMarketData(cfg *config.Config) domrepo.MarketData {
	return polygon.NewClient(cfg.Polygon.APIKey, cfg.Polygon.BaseURL, cfg.Polygon.RequestsPerSec, cfg.Polygon.Burst)
}

// ProvideMarketStream creates the Polygon websocket stream.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) domrepo.MarketStream {
	return polygon.NewStream(
		cfg.Polygon.APIKey,
		cfg.Polygon.WebSocketURL,
		cfg.Polygon.Tickers,
		cfg.Polygon.ReconnectDelay,
		cfg.Polygon.PingInterval,
		l,
	)
}

// ProvideRedisClient creates the shared Redis client, nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCacheService creates the layered (memory + Redis) cache, or a
// pure in-memory cache when Redis is disabled.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitHostPort(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideBarCache adapts the cache service to the bar-series capability.
func ProvideBarCache(svc pkgcache.Service) domrepo.BarCache {
	return icache.NewBarSeriesCache(svc)
}

// ProvideSnapshotBuilder creates the snapshot assembly use case.
func ProvideSnapshotBuilder(
	data domrepo.MarketData,
	store domrepo.BarStore,
	barCache domrepo.BarCache,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SnapshotBuilder {
	return usecase.NewSnapshotBuilder(data, store, barCache, m, usecase.SnapshotConfig{
		HistoryDays: cfg.Analysis.HistoryDays,
		HVNBinWidth: cfg.Analysis.HVNBinWidth,
		CacheTTL:    cfg.Analysis.CacheTTL,
	}, l)
}

// ProvideAnalyzer creates the periodic analysis loop.
func ProvideAnalyzer(
	builder *usecase.SnapshotBuilder,
	eng *engine.Engine,
	zones domrepo.ZoneStore,
	pub domrepo.Publisher,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(builder, eng, zones, pub, m, l,
		cfg.Polygon.Tickers, cfg.Analysis.Interval, cfg.Analysis.MaxParallel)
}

// ProvideBacktester creates the outcome evaluator.
func ProvideBacktester(zones domrepo.ZoneStore, bars domrepo.BarStore, m domrepo.Metrics, l *applogger.Logger) *usecase.Backtester {
	return usecase.NewBacktester(zones, bars, m, l)
}

// ProvideEdgeMonitor creates the rolling edge validator.
func ProvideEdgeMonitor(zones domrepo.ZoneStore, m domrepo.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.EdgeMonitor {
	return usecase.NewEdgeMonitor(zones, m, l, usecase.EdgeConfig{
		Window:         cfg.Edge.Window,
		MinTrades:      cfg.Edge.MinTrades,
		BaselineRate:   cfg.Edge.BaselineRate,
		DriftStdErrors: cfg.Edge.DriftStdErrors,
		Interval:       cfg.Edge.Interval,
	}, cfg.Polygon.Tickers)
}

// ProvideLiveCollector creates the websocket ingest path with the bar
// pipeline in between.
func ProvideLiveCollector(
	stream domrepo.MarketStream,
	store domrepo.BarStore,
	m domrepo.Metrics,
) *usecase.LiveCollector {
	proc := usecase.NewBarProcessor(store, m)
	pipe := mid.NewBarPipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewLiveCollector(stream, proc, m, pipe)
}

// ProvideGradingQueue creates the Redis grading queue in
// producer-consumer mode with the grade job registered, or nil when
// grading is disabled or Redis is off.
func ProvideGradingQueue(
	cfg *config.Config,
	l *applogger.Logger,
	client *redis.Client,
	zones domrepo.ZoneStore,
	m domrepo.Metrics,
) *queue.RedisQueue {
	if !cfg.Grading.Enabled || client == nil {
		return nil
	}
	var grader domsvc.SetupGrader = grading.NewHTTPSetupGrader(cfg)
	job := usecase.NewGradeSetupJob(grader, zones, m, l)
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    2,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, queue.ModeProducerConsumer, queue.WithKeyPrefix(cfg.Grading.Queue))
	q.RegisterJob(job)
	return q
}

// ProvideKafkaAnalysesHandler creates the analyses fan-out consumer.
func ProvideKafkaAnalysesHandler(
	cfg *config.Config,
	gradingQueue *queue.RedisQueue,
	backtester *usecase.Backtester,
	m domrepo.Metrics,
) *usecase.KafkaAnalysesHandler {
	var svc queue.QueueService
	if gradingQueue != nil {
		svc = gradingQueue
	}
	return usecase.NewKafkaAnalysesHandler(cfg.Kafka.Topic, svc, backtester, m)
}

// ProvideHTTPHandler creates the Echo dashboard API handler plus the
// legacy query-param surface mounted under /legacy.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	zones domrepo.ZoneStore,
	edge *usecase.EdgeMonitor,
	bars domrepo.BarStore,
) *api.ZonesEchoHandler {
	dash := usecase.NewDashboardUseCase(zones, edge)
	barsUC := usecase.NewBarsUseCase(bars)
	h := api.NewZonesEchoHandler(l, dash, barsUC)

	legacy := api.NewZonesHandler(dash)
	legacy.SetLogger(l)
	if cfg.Redis.Enabled {
		legacy.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		legacy.SetCache(icache.NewTTLCache())
	}
	h.SetLegacyHandler(legacy)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.LiveCollector,
	analyzer *usecase.Analyzer,
	backtester *usecase.Backtester,
	edge *usecase.EdgeMonitor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaAnalysesHandler,
	chClient *pkgch.Client,
	gradingQueue *queue.RedisQueue,
	httpHandler *api.ZonesEchoHandler,
) *server.App {
	app := server.New(cfg, l, collector, analyzer, backtester, edge, consumer, kh, chClient)
	app.SetHTTPHandler(httpHandler)
	if gradingQueue != nil {
		app.SetGradingQueue(gradingQueue)
	}
	return app
}
