package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/xllucky21/xllucky/internal/handler/api"
	mid "github.com/xllucky21/xllucky/internal/middleware"
	"github.com/xllucky21/xllucky/internal/usecase"
	"github.com/xllucky21/xllucky/pkg/cache"
	pkgch "github.com/xllucky21/xllucky/pkg/clickhouse"
	"github.com/xllucky21/xllucky/pkg/config"
	xhttp "github.com/xllucky21/xllucky/pkg/http"
	pkgkafka "github.com/xllucky21/xllucky/pkg/kafka"
	applogger "github.com/xllucky21/xllucky/pkg/logger"
)

// ErrBusy is returned when another process holds the lock of a job.
var ErrBusy = errors.New("job already running")

// jobLockTTL bounds a lock left behind by a crashed run.
const jobLockTTL = 30 * time.Minute

// Jobs groups the pipelines the app can run.
type Jobs struct {
	Bond     *usecase.BondJob
	Dividend *usecase.DividendJob
	LOF      *usecase.LOFJob
	Summary  *usecase.SummaryBuilder
	Push     *usecase.Pusher
}

// Deps is everything the app owns. Everything except Config, Logger and
// Jobs may be nil.
type Deps struct {
	Config    *config.Config
	Logger    *applogger.Logger
	Jobs      Jobs
	Cache     cache.Service
	Pipeline  *mid.ScorePipeline
	Processor *usecase.ScoreProcessor
	Consumer  *pkgkafka.Consumer
	Hub       *api.ScoreHub
	Handlers  []xhttp.Handler
	CH        *pkgch.Client
}

// App encapsulates the application lifecycle: one-shot runs from the CLI
// and the long-running serve mode.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	jobs       Jobs
	cache      cache.Service
	pipeline   *mid.ScorePipeline
	processor  *usecase.ScoreProcessor
	consumer   *pkgkafka.Consumer
	hub        *api.ScoreHub
	handlers   []xhttp.Handler
	chClient   *pkgch.Client
	httpServer *xhttp.Server

	// mu serialises job runs inside this process.
	mu sync.Mutex
}

// New creates a new App instance with all dependencies.
func New(d Deps) *App {
	l := d.Logger
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:       d.Config,
		l:         l,
		jobs:      d.Jobs,
		cache:     d.Cache,
		pipeline:  d.Pipeline,
		processor: d.Processor,
		consumer:  d.Consumer,
		hub:       d.Hub,
		handlers:  d.Handlers,
		chClient:  d.CH,
	}
}

func (a *App) Jobs() Jobs                { return a.jobs }
func (a *App) Config() *config.Config    { return a.cfg }
func (a *App) Logger() *applogger.Logger { return a.l }

// ReportDir is where per-run report bundles are written by default.
func (a *App) ReportDir() string { return a.cfg.DataPath("reports") }

// Exclusive runs fn while holding the in-process mutex and, when a shared
// cache is configured, the cache lock of name. A held cache lock means a
// run in another process: fn is skipped and ErrBusy returned.
func (a *App) Exclusive(ctx context.Context, name string, fn func(context.Context) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cache != nil {
		key := cache.GenerateKey("lock:job", name)
		ok, err := a.cache.TryLock(ctx, key, jobLockTTL)
		switch {
		case err != nil:
			a.l.Warn("job lock unavailable, running unlocked", applogger.String("job", name), applogger.Error(err))
		case !ok:
			return fmt.Errorf("%s: %w", name, ErrBusy)
		default:
			defer func() {
				if err := a.cache.Unlock(context.Background(), key); err != nil {
					a.l.Warn("job unlock failed", applogger.String("job", name), applogger.Error(err))
				}
			}()
		}
	}
	return fn(ctx)
}

// Serve starts the score pipeline, the Kafka consumer, the scheduler and
// the HTTP server, then blocks until ctx is done or a signal arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
	}

	var wg sync.WaitGroup
	if a.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Run(ctx); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
	}

	sched, err := a.scheduler(ctx)
	if err != nil {
		return err
	}
	sched.Start()
	a.l.Info("scheduler started", applogger.Int("entries", len(sched.Entries())))

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.l, a.handlers,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")

	// wait for a running job to finish before tearing down its sinks
	<-sched.Stop().Done()
	if a.hub != nil {
		a.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	wg.Wait()
	return a.Close(shutdownCtx)
}

// Close flushes buffered score events and closes infrastructure clients.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.pipeline != nil {
		a.pipeline.Stop()
		if err := a.pipeline.Flush(ctx); err != nil {
			a.l.Warn("score events lost on shutdown",
				applogger.Int("events", a.pipeline.Pending()), applogger.Error(err))
		}
	}
	// ships the last aggregated log batch while the producer is still open
	a.l.RemoveCollector()
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka consumer close: %w", err))
		}
	}
	if a.processor != nil {
		if err := a.processor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("score processor close: %w", err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse close: %w", err))
		}
	}
	if c, ok := a.cache.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}
	return errors.Join(errs...)
}
