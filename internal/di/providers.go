package di

import (
	"context"
	"fmt"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/domain/repository"
	domsvc "github.com/xllucky21/xllucky/internal/domain/service"
	"github.com/xllucky21/xllucky/internal/handler/api"
	mid "github.com/xllucky21/xllucky/internal/middleware"
	internalrepo "github.com/xllucky21/xllucky/internal/repository"
	"github.com/xllucky21/xllucky/internal/service/ratelimit"
	"github.com/xllucky21/xllucky/internal/service/sources"
	"github.com/xllucky21/xllucky/internal/service/wecom"
	"github.com/xllucky21/xllucky/internal/usecase"
	"github.com/xllucky21/xllucky/pkg/cache"
	pkgch "github.com/xllucky21/xllucky/pkg/clickhouse"
	"github.com/xllucky21/xllucky/pkg/config"
	xhttp "github.com/xllucky21/xllucky/pkg/http"
	pkgkafka "github.com/xllucky21/xllucky/pkg/kafka"
	applogger "github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/metrics"
	"github.com/xllucky21/xllucky/pkg/server"
)

// Optional backends (Redis, Kafka, ClickHouse) are disabled by default.
// Their providers return nil and every consumer accepts nil, converted to an
// untyped nil where an interface is expected.

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache layers memory over Redis when configured, else over the
// on-disk cache, so day-scoped entries and push fingerprints survive
// between one-shot runs.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return cache.NewLayeredCache(rc), nil
	}
	fc, err := cache.NewFileCache(cache.WithFileDir(cfg.CachePath("kv")))
	if err != nil {
		return nil, fmt.Errorf("file cache: %w", err)
	}
	return cache.NewLayeredCache(fc), nil
}

// ProvideSourceClient creates the paced provider client shared by all jobs.
func ProvideSourceClient(cfg *config.Config, m repository.Metrics, l *applogger.Logger) *sources.Client {
	return sources.NewClient(sources.NewHTTPClient(cfg), sources.URLsFromConfig(cfg), m, l.With(applogger.String("component", "sources")))
}

func ProvideMarketData(c *sources.Client) repository.MarketData { return c }

func ProvideFundData(c *sources.Client) repository.FundData { return c }

// ProvideBondStore creates the bond history store.
func ProvideBondStore(cfg *config.Config, l *applogger.Logger) repository.SnapshotStore[models.BondReport] {
	return internalrepo.NewHistoryStore(cfg.DataPath(cfg.Bond.TSFile), internalrepo.BondPolicy(cfg.Bond.HistoryLimit), l)
}

// ProvideDividendStore creates the dividend history store.
func ProvideDividendStore(cfg *config.Config, l *applogger.Logger) repository.SnapshotStore[models.DividendReport] {
	return internalrepo.NewHistoryStore(cfg.DataPath(cfg.Dividend.TSFile), internalrepo.DividendPolicy(cfg.Dividend.HistoryLimit), l)
}

func ProvideFingerprintStore(c cache.Service) repository.FingerprintStore {
	return internalrepo.NewCacheFingerprintStore(c)
}

func ProvideNotifier(cfg *config.Config) domsvc.Notifier {
	return wecom.New(cfg.Push.Timeout, cfg.HTTP.InsecureTLS)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideScoreStore creates the scores table store and its schema.
func ProvideScoreStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (*internalrepo.CHScoreStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHScoreStore(ch, cfg.ClickHouse.Database, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

func ProvideScoreSink(store *internalrepo.CHScoreStore) repository.ScoreSink {
	if store == nil {
		return nil
	}
	return store
}

func ProvideScoreReader(store *internalrepo.CHScoreStore) repository.ScoreReader {
	if store == nil {
		return nil
	}
	return store
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideScorePublisher creates the Kafka publisher repository.
func ProvideScorePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideScoreProcessor fans job events out to the sinks. With Kafka on,
// ClickHouse is written by the serve-mode consumer instead, so each event
// is stored once.
func ProvideScoreProcessor(cfg *config.Config, pub repository.Publisher, sink repository.ScoreSink, m repository.Metrics) *usecase.ScoreProcessor {
	if pub != nil {
		sink = nil
	}
	if pub == nil && sink == nil {
		return nil
	}
	return usecase.NewScoreProcessor(pub, sink, m)
}

// ProvideScorePipeline puts validation and buffering in front of the
// processor.
func ProvideScorePipeline(proc *usecase.ScoreProcessor, m repository.Metrics, l *applogger.Logger) *mid.ScorePipeline {
	if proc == nil {
		return nil
	}
	return mid.NewScorePipeline(proc, m,
		mid.WithBufferSize(5000),
		mid.WithLogger(l),
	)
}

func ProvideScoreEmitter(p *mid.ScorePipeline) usecase.ScoreEmitter {
	if p == nil {
		return nil
	}
	return p
}

// ProvideScoreHub creates the websocket hub. It is only fed by the Kafka
// consumer, so it exists only with Kafka on.
func ProvideScoreHub(cfg *config.Config, l *applogger.Logger) *api.ScoreHub {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return api.NewScoreHub(l)
}

// ProvideScoreEventsHandler creates the consumer side of the score topic.
func ProvideScoreEventsHandler(cfg *config.Config, sink repository.ScoreSink, hub *api.ScoreHub, m repository.Metrics) *usecase.ScoreEventsHandler {
	var b usecase.Broadcaster
	if hub != nil {
		b = hub
	}
	return usecase.NewScoreEventsHandler(cfg.Kafka.Topic, sink, b, m)
}

// ProvideKafkaConsumer creates the score topic consumer, or nil when Kafka
// is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, h *usecase.ScoreEventsHandler) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l, h.Handle,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerTopic(h.Topic()),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideBondJob(cfg *config.Config, data repository.MarketData, store repository.SnapshotStore[models.BondReport], e usecase.ScoreEmitter, m repository.Metrics, l *applogger.Logger) *usecase.BondJob {
	return usecase.NewBondJob(cfg, data, store, e, m, l.With(applogger.String("job", "bond")))
}

func ProvideDividendJob(cfg *config.Config, data repository.MarketData, store repository.SnapshotStore[models.DividendReport], e usecase.ScoreEmitter, m repository.Metrics, l *applogger.Logger) *usecase.DividendJob {
	return usecase.NewDividendJob(cfg, data, store, e, m, l.With(applogger.String("job", "dividend")))
}

func ProvideLOFJob(cfg *config.Config, data repository.FundData, c cache.Service, e usecase.ScoreEmitter, m repository.Metrics, l *applogger.Logger) *usecase.LOFJob {
	return usecase.NewLOFJob(cfg, data, c, e, m, l.With(applogger.String("job", "lof")))
}

func ProvideSummaryBuilder(cfg *config.Config, bonds repository.SnapshotStore[models.BondReport], dividends repository.SnapshotStore[models.DividendReport], data repository.MarketData, l *applogger.Logger) *usecase.SummaryBuilder {
	return usecase.NewSummaryBuilder(cfg, bonds, dividends, data, l.With(applogger.String("job", "summary")))
}

func ProvidePusher(cfg *config.Config, n domsvc.Notifier, fp repository.FingerprintStore, m repository.Metrics, l *applogger.Logger) *usecase.Pusher {
	return usecase.NewPusher(cfg, n, fp, m, l.With(applogger.String("job", "push")))
}

func ProvideReportsUseCase(cfg *config.Config, bonds repository.SnapshotStore[models.BondReport], dividends repository.SnapshotStore[models.DividendReport], scores repository.ScoreReader, c cache.Service) *usecase.ReportsUseCase {
	return usecase.NewReportsUseCase(cfg, bonds, dividends, scores, c)
}

// ProvideRateLimiter creates the /api limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.Server.RateBurst <= 0 {
		return nil
	}
	return ratelimit.New(cfg.Server.RateBurst, cfg.Server.RatePerSec)
}

// ProvideHTTPHandlers collects the route handlers of serve mode.
func ProvideHTTPHandlers(l *applogger.Logger, uc *usecase.ReportsUseCase, hub *api.ScoreHub, limiter *ratelimit.Limiter) []xhttp.Handler {
	return []xhttp.Handler{api.NewReportsHandler(l, uc, hub, limiter)}
}

func ProvideJobs(bond *usecase.BondJob, dividend *usecase.DividendJob, lof *usecase.LOFJob, summary *usecase.SummaryBuilder, push *usecase.Pusher) server.Jobs {
	return server.Jobs{Bond: bond, Dividend: dividend, LOF: lof, Summary: summary, Push: push}
}

// ProvideApp creates the application and attaches the log collector. With
// Kafka on, aggregated warnings and errors are also shipped to the log topic.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	jobs server.Jobs,
	c cache.Service,
	pipeline *mid.ScorePipeline,
	proc *usecase.ScoreProcessor,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	hub *api.ScoreHub,
	handlers []xhttp.Handler,
	ch *pkgch.Client,
) *server.App {
	cc := &applogger.CollectionConfig{CountThreshold: 100}
	if producer != nil {
		cc.Publisher = producer
		cc.Topic = cfg.Kafka.LogTopic
		cc.TimeInterval = 30 * time.Second
	}
	l.AddCollector(cc)

	return server.New(server.Deps{
		Config:    cfg,
		Logger:    l,
		Jobs:      jobs,
		Cache:     c,
		Pipeline:  pipeline,
		Processor: proc,
		Consumer:  consumer,
		Hub:       hub,
		Handlers:  handlers,
		CH:        ch,
	})
}
