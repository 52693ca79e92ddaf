package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/controller"
	"github.com/dwarvesf/alph-swap-backend/internal/handler/health"
	"github.com/dwarvesf/alph-swap-backend/internal/handler/metrics"
	"github.com/dwarvesf/alph-swap-backend/internal/handler/swap"
	"github.com/dwarvesf/alph-swap-backend/internal/monitoring"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

type Handler struct {
	SwapHandler    swap.IHandler
	HealthHandler  health.IHealthHandler
	MetricsHandler *metrics.MetricsHandler
}

// Deps groups what the handlers need. DB is nil with the memory store; the
// monitoring pieces are optional.
type Deps struct {
	Controller       controller.IController
	AlphRPC          alphrpc.IAlphRPC
	DB               *gorm.DB
	MetricsRegistry  *prometheus.Registry
	MetricsRecorder  *monitoring.BusinessMetricsRecorder
	JobStatusManager *monitoring.JobStatusManager
}

func New(appConfig *config.AppConfig, logger *logger.Logger, deps Deps) *Handler {
	registry := deps.MetricsRegistry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Handler{
		SwapHandler:    swap.New(deps.Controller, logger, appConfig, deps.MetricsRecorder),
		HealthHandler:  health.New(appConfig, logger, deps.DB, deps.AlphRPC, deps.JobStatusManager),
		MetricsHandler: metrics.NewMetricsHandler(registry),
	}
}
