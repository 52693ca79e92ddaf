package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/handler"
	"github.com/dwarvesf/alph-swap-backend/internal/monitoring"
	"github.com/dwarvesf/alph-swap-backend/internal/store"
	pgstore "github.com/dwarvesf/alph-swap-backend/internal/store/postgres"
	"github.com/dwarvesf/alph-swap-backend/internal/telemetry"
	transport "github.com/dwarvesf/alph-swap-backend/internal/transport/http"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/vault"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/webhook"
)

const shutdownTimeout = 30 * time.Second

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loadWalletPassword(ctx, appConfig, logger); err != nil {
		logger.Fatal("[server.Init][loadWalletPassword] failed to read wallet password from vault", map[string]string{
			"error": err.Error(),
		})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := monitoring.NewHTTPMetrics()
	httpMetrics.MustRegister(registry)
	apiMetrics := monitoring.NewExternalAPIMetrics()
	apiMetrics.MustRegister(registry)
	jobMetrics := monitoring.NewBackgroundJobMetrics()
	jobMetrics.MustRegister(registry)
	swapMetrics := monitoring.NewSwapMetrics()
	swapMetrics.MustRegister(registry)
	metricsRecorder := monitoring.NewBusinessMetricsRecorder(httpMetrics)

	s, db, closeStore := openStore(appConfig, logger)
	defer closeStore()

	alphRpc, err := monitoring.NewCircuitBreakerAlphRPCWithTimeout(
		alphrpc.New(appConfig, logger),
		monitoring.CircuitBreakerConfigs[monitoring.AlephiumNodeAPI],
		monitoring.TimeoutConfig{
			RequestTimeout:     appConfig.Alephium.RequestTimeout,
			TransferTimeout:    monitoring.DefaultTimeoutConfig.TransferTimeout,
			HealthCheckTimeout: monitoring.DefaultTimeoutConfig.HealthCheckTimeout,
		},
		apiMetrics,
		logger,
	)
	if err != nil {
		logger.Fatal("[server.Init][NewCircuitBreakerAlphRPC] invalid circuit breaker config", map[string]string{
			"error": err.Error(),
		})
	}

	ctrl := controller.New(s, appConfig, logger)
	tel := telemetry.New(ctrl, appConfig, logger, alphRpc, telemetry.WithMetrics(metricsRecorder))

	jobStatusManager := monitoring.NewJobStatusManager(logger, jobMetrics)
	defer jobStatusManager.Stop()

	instrumented := monitoring.NewInstrumentedTelemetry(
		tel,
		jobStatusManager,
		swapMetrics,
		s.SwapRequest,
		logger,
		appConfig,
		webhook.New(logger),
	)

	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))
	schedule(c, logger, appConfig.Jobs.DepositWatchInterval, monitoring.DepositWatchingJob, instrumented.WatchDeposits)
	schedule(c, logger, appConfig.Jobs.FulfillmentInterval, monitoring.FulfillmentJob, instrumented.ProcessFulfillments)
	schedule(c, logger, appConfig.Jobs.MetricsInterval, monitoring.SwapMetricsRefreshJob, instrumented.RefreshSwapMetrics)
	c.Start()

	h := handler.New(appConfig, logger, handler.Deps{
		Controller:       ctrl,
		AlphRPC:          alphRpc,
		DB:               db,
		MetricsRegistry:  registry,
		MetricsRecorder:  metricsRecorder,
		JobStatusManager: jobStatusManager,
	})

	httpServer := &http.Server{
		Addr:              ":" + appConfig.ApiServer.Port,
		Handler:           transport.NewHttpServer(appConfig, logger, h, httpMetrics),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("[server.Init] http server listening", map[string]string{
			"addr": httpServer.Addr,
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[server.Init][ListenAndServe]", map[string]string{
				"error": err.Error(),
			})
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[server.Init] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("[server.Init][Shutdown]", map[string]string{
			"error": err.Error(),
		})
	}

	// wait for in-flight jobs so no transfer is cut off between submit and record
	select {
	case <-c.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("[server.Init] background jobs still running at shutdown")
	}
}

// openStore returns the swap request store for the configured driver. The
// returned *gorm.DB is nil for the memory driver.
func openStore(appConfig *config.AppConfig, logger *logger.Logger) (*store.Store, *gorm.DB, func()) {
	switch appConfig.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("[server.openStore] using in-memory store, swap requests are lost on restart")
		return store.NewMemory(), nil, func() {}
	case config.StoreDriverPostgres, config.StoreDriverEmbedded:
	default:
		logger.Fatal("[server.openStore] unknown STORE_DRIVER", map[string]string{
			"driver": appConfig.Store.Driver,
		})
	}

	pg := pgstore.New(appConfig, logger)
	if appConfig.Store.AutoMigrate || appConfig.Store.Driver == config.StoreDriverEmbedded {
		if err := pgstore.Migrate(pg.DB(), logger); err != nil {
			logger.Fatal("[server.openStore][Migrate] failed to run migrations", map[string]string{
				"error": err.Error(),
			})
		}
	}

	return store.New(pg.DB()), pg.DB(), func() {
		if err := pg.Close(); err != nil {
			logger.Error("[server.openStore][Close]", map[string]string{
				"error": err.Error(),
			})
		}
	}
}

func loadWalletPassword(ctx context.Context, appConfig *config.AppConfig, logger *logger.Logger) error {
	if appConfig.Vault.Addr == "" {
		return nil
	}

	vc, err := vault.New(ctx, appConfig.Vault)
	if err != nil {
		return err
	}
	password, err := vc.GetKV(ctx, appConfig.Vault.WalletPasswordKey)
	if err != nil {
		return err
	}

	appConfig.Alephium.WalletPassword = password
	logger.Info("[server.loadWalletPassword] wallet password loaded from vault")
	return nil
}

func schedule(c *cron.Cron, logger *logger.Logger, interval time.Duration, name string, job func() error) {
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := c.AddFunc(spec, func() { _ = job() }); err != nil {
		logger.Fatal("[server.schedule] invalid job interval", map[string]string{
			"job":      name,
			"interval": interval.String(),
			"error":    err.Error(),
		})
	}
}

// cronLogger adapts the app logger to cron.Logger.
type cronLogger struct {
	logger *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("[cron] "+msg, keyValueFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := keyValueFields(keysAndValues)
	fields["error"] = err.Error()
	l.logger.Error("[cron] "+msg, fields)
}

func keyValueFields(keysAndValues []interface{}) map[string]string {
	fields := map[string]string{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = fmt.Sprint(keysAndValues[i+1])
	}
	return fields
}
