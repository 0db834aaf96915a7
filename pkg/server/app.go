package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"PokerAssist/internal/handler/signaling"
	mid "PokerAssist/internal/middleware"
	"PokerAssist/pkg/config"
	xhttp "PokerAssist/pkg/http"
	pkgkafka "PokerAssist/pkg/kafka"
	applogger "PokerAssist/pkg/logger"
)

type closer struct {
	name string
	fn   func() error
}

type periodic struct {
	name     string
	interval time.Duration
	fn       func()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	pipeline   *mid.HistoryPipeline
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	relay      *signaling.Relay
	closers    []closer
	periodics  []periodic

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*App)

// WithHistoryPipeline starts and drains the hand history pipeline with the app.
func WithHistoryPipeline(p *mid.HistoryPipeline) Option {
	return func(a *App) { a.pipeline = p }
}

// WithConsumer runs c with the given handlers. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = c
		a.handlers = handlers
	}
}

func WithRelay(r *signaling.Relay) Option {
	return func(a *App) { a.relay = r }
}

// WithCloser registers a resource closed on shutdown; closers run in reverse registration order.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, closer{name: name, fn: fn})
		}
	}
}

// WithPeriodic runs fn every interval until shutdown.
func WithPeriodic(name string, interval time.Duration, fn func()) Option {
	return func(a *App) {
		if interval > 0 && fn != nil {
			a.periodics = append(a.periodics, periodic{name: name, interval: interval, fn: fn})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	a := &App{cfg: cfg, logger: l, httpServer: srv}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Start launches background workers and the HTTP server without blocking.
func (a *App) Start(parent context.Context) error {
	// Workers outlive the signal context; Shutdown cancels them after draining.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	a.cancel = cancel

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.logger.Info("history pipeline started", applogger.String("backend", a.cfg.History.Backend))
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}

	for _, p := range a.periodics {
		a.wg.Add(1)
		go a.runPeriodic(ctx, p)
	}

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	a.logger.Info("pokerassist started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment),
	)
	return nil
}

func (a *App) runPeriodic(ctx context.Context, p periodic) {
	defer a.wg.Done()
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.fn()
		}
	}
}

// Shutdown stops intake first (HTTP, relay, consumer), then drains history and closes clients.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.relay != nil {
		a.relay.Close()
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		stopCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		if err := a.consumer.Stop(stopCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
		cancel()
	}

	if a.pipeline != nil {
		a.pipeline.Stop()
	}

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
