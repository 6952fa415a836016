package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"Epoch/internal/usecase"
	pkgch "Epoch/pkg/clickhouse"
	"Epoch/pkg/config"
	xhttp "Epoch/pkg/http"
	pkgkafka "Epoch/pkg/kafka"
	applogger "Epoch/pkg/logger"
	"Epoch/pkg/queue"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle: live bar ingest,
// the periodic analysis loop, deferred backtesting, edge monitoring,
// the analyses consumer, the grading queue and the HTTP API.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	collector  *usecase.LiveCollector
	analyzer   *usecase.Analyzer
	backtester *usecase.Backtester
	edge       *usecase.EdgeMonitor
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client

	gradingQueue *queue.RedisQueue
	httpServer   *xhttp.Server
	httpHandler  xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.LiveCollector,
	analyzer *usecase.Analyzer,
	backtester *usecase.Backtester,
	edge *usecase.EdgeMonitor,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		collector:  collector,
		analyzer:   analyzer,
		backtester: backtester,
		edge:       edge,
		consumer:   consumer,
		kh:         kh,
		chClient:   chClient,
	}
}

// SetHTTPHandler allows DI to inject the API handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetGradingQueue allows DI to inject the grading queue consumer.
func (a *App) SetGradingQueue(q *queue.RedisQueue) { a.gradingQueue = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	a.registerHealth()

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.l.Error("collector error", applogger.Error(err))
			}
		}()
		a.l.Info("collector started", applogger.Strings("tickers", a.cfg.Polygon.Tickers))
	}

	a.analyzer.Start(ctx)
	a.l.Info("analyzer started",
		applogger.Duration("interval_ms", a.cfg.Analysis.Interval),
		applogger.Strings("tickers", a.cfg.Polygon.Tickers),
	)

	a.backtester.Start(ctx)
	a.edge.Start(ctx)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.gradingQueue != nil {
		if err := a.gradingQueue.Start(); err != nil {
			a.l.Error("grading queue start error", applogger.Error(err))
		} else {
			a.l.Info("grading queue started")
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("collector stop error", applogger.Error(err))
		}
	}
	a.analyzer.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.gradingQueue != nil {
		if err := a.gradingQueue.Stop(shutdownCtx); err != nil {
			a.l.Warn("grading queue stop error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}

// registerHealth exposes liveness and readiness on the Echo instance.
func (a *App) registerHealth() {
	e := a.httpServer.Echo()
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		status := map[string]string{"clickhouse": "ok", "stream": "ok"}
		code := http.StatusOK
		if a.chClient != nil {
			if err := a.chClient.Health(c.Request().Context()); err != nil {
				status["clickhouse"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		if a.collector != nil && !a.collector.IsConnected() {
			status["stream"] = "disconnected"
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, status)
	})
}
