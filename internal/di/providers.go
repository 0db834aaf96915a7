package di

import (
	"context"
	"fmt"
	"time"

	"PokerAssist/internal/domain/repository"
	domsvc "PokerAssist/internal/domain/service"
	"PokerAssist/internal/handler/api"
	"PokerAssist/internal/handler/signaling"
	mid "PokerAssist/internal/middleware"
	internalrepo "PokerAssist/internal/repository"
	"PokerAssist/internal/service/ratelimit"
	"PokerAssist/internal/services/policy"
	"PokerAssist/internal/services/reasoning"
	"PokerAssist/internal/usecase"
	"PokerAssist/pkg/cache"
	pkgch "PokerAssist/pkg/clickhouse"
	"PokerAssist/pkg/config"
	xhttp "PokerAssist/pkg/http"
	pkgkafka "PokerAssist/pkg/kafka"
	applogger "PokerAssist/pkg/logger"
	"PokerAssist/pkg/metrics"
	"PokerAssist/pkg/server"

	"github.com/segmentio/kafka-go"
)

const rateLimitIdle = 10 * time.Minute

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

func ProvideProfileStore(cfg *config.Config) repository.ProfileStore {
	return internalrepo.NewMemoryProfileStore(cfg.Profiles.Shards)
}

// noCleanup is returned by providers that opened nothing.
func noCleanup() {}

// closeCleanup adapts a Close method to a wire cleanup, logging instead of dropping the error.
func closeCleanup(l *applogger.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			l.Warn("close error", applogger.String("resource", name), applogger.Error(err))
		}
	}
}

// ProvideCache returns the explanation cache: in-process LRU, fronting Redis when enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Reasoning.CacheSize))
		return mc, closeCleanup(l, "cache", mc.Close), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisOpTimeout(cfg.Reasoning.Timeout),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdle),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Reasoning.CacheSize))
	return lc, closeCleanup(l, "cache", lc.Close), nil
}

func ProvidePolicy() domsvc.DecisionPolicy {
	return policy.NewBaseline()
}

func ProvideReasoner(cfg *config.Config, c cache.Service, m repository.Metrics, l *applogger.Logger) domsvc.Reasoner {
	return reasoning.NewReasoner(cfg, c, m, l)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when nothing publishes to Kafka.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.KafkaRequired() {
		return nil, noCleanup, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, closeCleanup(l, "kafka producer", producer.Close), nil
}

// ProvideClickHouseClient connects and creates the hand_history schema, or returns nil
// unless history goes to ClickHouse.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if cfg.History.Backend != config.HistoryBackendClickHouse {
		return nil, noCleanup, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithAuth(cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(10, 5, 5*time.Minute),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithInsertMode(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.HistorySchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, closeCleanup(l, "clickhouse", client.Close), nil
}

// ProvideHistoryProcessor binds the processor to whichever sink the backend selects.
func ProvideHistoryProcessor(cfg *config.Config, producer *pkgkafka.Producer, ch *pkgch.Client, m repository.Metrics, l *applogger.Logger) *usecase.HistoryProcessor {
	var pub repository.HistoryPublisher
	var store repository.HistoryStorage
	switch cfg.History.Backend {
	case config.HistoryBackendKafka:
		pub = internalrepo.NewKafkaHistoryPublisher(producer, cfg.Kafka.HistoryTopic)
	case config.HistoryBackendClickHouse:
		store = internalrepo.NewClickHouseHistoryStorage(ch, cfg.ClickHouse.Database, l)
	}
	return usecase.NewHistoryProcessor(pub, store, m, cfg.History.Backend)
}

// ProvideHistoryPipeline returns nil when recording is disabled.
func ProvideHistoryPipeline(cfg *config.Config, proc *usecase.HistoryProcessor, m repository.Metrics, l *applogger.Logger) *mid.HistoryPipeline {
	if cfg.History.Backend == config.HistoryBackendNone {
		return nil
	}
	return mid.NewHistoryPipeline(proc, m,
		mid.WithBatchSize(cfg.History.BatchSize),
		mid.WithBatchTimeout(cfg.History.BatchTimeout),
		mid.WithBufferSize(cfg.History.BufferSize),
		mid.WithPipelineLogger(l),
	)
}

func ProvideAdvisor(
	store repository.ProfileStore,
	pol domsvc.DecisionPolicy,
	reasoner domsvc.Reasoner,
	pipeline *mid.HistoryPipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Advisor {
	opts := []usecase.AdvisorOption{
		usecase.WithAdvisorMetrics(m),
		usecase.WithAdvisorLogger(l),
	}
	if pipeline != nil {
		opts = append(opts, usecase.WithHistorySink(pipeline))
	}
	return usecase.NewAdvisor(store, pol, reasoner, opts...)
}

func ProvideObservationRecorder(store repository.ProfileStore, m repository.Metrics) *usecase.ObservationRecorder {
	return usecase.NewObservationRecorder(store, m)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
}

func ProvideAdvisorHandler(l *applogger.Logger, advisor *usecase.Advisor, recorder *usecase.ObservationRecorder, reasoner domsvc.Reasoner, proc *usecase.HistoryProcessor, limiter *ratelimit.Limiter) *api.AdvisorEchoHandler {
	return api.NewAdvisorEchoHandler(l, advisor, recorder, reasoner.Mode(), proc, limiter)
}

func ProvideHistoryHandler(l *applogger.Logger, proc *usecase.HistoryProcessor, limiter *ratelimit.Limiter) *api.HistoryEchoHandler {
	return api.NewHistoryEchoHandler(l, proc, limiter)
}

func ProvideRelay(l *applogger.Logger, limiter *ratelimit.Limiter) *signaling.Relay {
	return signaling.NewRelay(signaling.WithLogger(l), signaling.WithRateLimit(limiter))
}

// ProvideHTTPServer mounts every HTTP handler on one Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, ah *api.AdvisorEchoHandler, hh *api.HistoryEchoHandler, relay *signaling.Relay) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, nil, nil, cfg.Server.SlowThreshold))
	}
	return xhttp.NewServer(xhttp.Handlers{ah, hh, relay}, opts...)
}

// ProvideKafkaConsumer creates the observation consumer, or nil when ingest over Kafka is off.
// Its cleanup is a no-op after App.Shutdown has stopped it.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, m repository.Metrics) (*pkgkafka.Consumer, func(), error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, noCleanup, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, _ kafka.Message, _ error) {
			m.RecordError("kafka_" + topic)
		},
	})
	return consumer, closeCleanup(l, "kafka consumer", func() error {
		return consumer.Stop(context.Background())
	}), nil
}

func ProvideKafkaObservationsHandler(cfg *config.Config, recorder *usecase.ObservationRecorder) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.ObservationsTopic, recorder)
}

// ProvideApp creates the application server. Clients are closed by the injector's
// cleanup after Run returns; only the log collector is detached by the app itself.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	pipeline *mid.HistoryPipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	relay *signaling.Relay,
	limiter *ratelimit.Limiter,
	producer *pkgkafka.Producer,
) *server.App {
	opts := []server.Option{
		server.WithRelay(relay),
		server.WithPeriodic("rate_limit_prune", time.Minute, func() { limiter.Prune(rateLimitIdle) }),
	}
	if pipeline != nil {
		opts = append(opts, server.WithHistoryPipeline(pipeline))
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, kh))
	}
	if producer != nil {
		if cfg.Logging.Collector.Enabled {
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cfg.Logging.Collector.FlushInterval,
				CountThreshold: cfg.Logging.Collector.CountThreshold,
				Topic:          cfg.Logging.Collector.Topic,
				Publisher:      producer,
			})
			// the producer cleanup runs after Run returns, so the final flush still has a writer
			opts = append(opts, server.WithCloser("log_collector", func() error {
				l.RemoveCollector()
				return nil
			}))
		}
	}
	return server.New(cfg, l, srv, opts...)
}
