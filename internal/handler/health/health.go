package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/monitoring"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

// HealthHandler implements IHealthHandler interface
type HealthHandler struct {
	config           *config.AppConfig
	logger           *logger.Logger
	db               *gorm.DB
	alphRPC          alphrpc.IAlphRPC
	jobStatusManager *monitoring.JobStatusManager
}

// New creates a new health handler instance. db is nil when the memory store is in use.
func New(config *config.AppConfig, logger *logger.Logger, db *gorm.DB, alphRPC alphrpc.IAlphRPC, jobStatusManager *monitoring.JobStatusManager) IHealthHandler {
	return &HealthHandler{
		config:           config,
		logger:           logger,
		db:               db,
		alphRPC:          alphRPC,
		jobStatusManager: jobStatusManager,
	}
}

// Basic handles the basic health check endpoint (/healthz)
// @Summary Basic health check
// @Description Returns basic system availability status
// @Tags health
// @Produce json
// @Success 200 {object} BasicHealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Basic(c *gin.Context) {
	c.JSON(http.StatusOK, BasicHealthResponse{Message: "ok"})
}

// Database handles the database health check endpoint
// @Summary Database health check
// @Description Validates database connectivity
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/db [get]
func (h *HealthHandler) Database(c *gin.Context) {
	start := time.Now()
	response := HealthResponse{
		Timestamp: start,
		Checks:    map[string]HealthCheck{},
	}

	dbCheck := h.checkDatabase(c.Request.Context())
	response.Checks["database"] = dbCheck
	response.DurationMs = time.Since(start).Milliseconds()

	h.respond(c, &response)
}

// External handles the Alephium node health check endpoint
// @Summary External dependencies health check
// @Description Validates Alephium full node connectivity and sync state
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/v1/health/external [get]
func (h *HealthHandler) External(c *gin.Context) {
	start := time.Now()
	response := HealthResponse{
		Timestamp: start,
		Checks:    map[string]HealthCheck{},
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	response.Checks["alephium_node"] = h.checkAlephiumNode(ctx)
	response.DurationMs = time.Since(start).Milliseconds()

	h.respond(c, &response)
}

func (h *HealthHandler) respond(c *gin.Context, response *HealthResponse) {
	response.Status = "healthy"
	for name, check := range response.Checks {
		if check.Status != "healthy" {
			response.Status = "unhealthy"
			h.logger.Warn("[HealthCheck] dependency unhealthy", map[string]string{
				"check": name,
				"error": check.Error,
			})
		}
	}

	if response.Status == "healthy" {
		c.JSON(http.StatusOK, response)
		return
	}
	c.JSON(http.StatusServiceUnavailable, response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{Metadata: map[string]interface{}{}}

	if h.db == nil {
		if h.config != nil && h.config.Store.Driver == config.StoreDriverMemory {
			check.Status = "healthy"
			check.Metadata["driver"] = config.StoreDriverMemory
		} else {
			check.Status = "unhealthy"
			check.Error = "database connection not available"
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		check.Status = "unhealthy"
		check.Error = fmt.Sprintf("failed to get underlying database: %v", err)
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		check.Status = "unhealthy"
		check.Error = err.Error()
		if errors.Is(pingCtx.Err(), context.DeadlineExceeded) {
			check.Error = "timeout"
		}
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	stats := sqlDB.Stats()
	check.Status = "healthy"
	check.Latency = time.Since(start).Milliseconds()
	check.Metadata["driver"] = "postgres"
	check.Metadata["connection_pool"] = map[string]interface{}{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"max_open":         stats.MaxOpenConnections,
	}
	return check
}

func (h *HealthHandler) checkAlephiumNode(ctx context.Context) HealthCheck {
	start := time.Now()
	check := HealthCheck{Metadata: map[string]interface{}{}}

	if h.alphRPC == nil {
		check.Status = "unhealthy"
		check.Error = "alephium node client not available"
		check.Latency = time.Since(start).Milliseconds()
		return check
	}

	if breaker, ok := h.alphRPC.(*monitoring.CircuitBreakerAlphRPC); ok {
		check.Metadata["circuit_state"] = breaker.State().String()
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	info, err := h.alphRPC.NodeInfo(checkCtx)
	check.Latency = time.Since(start).Milliseconds()
	switch {
	case err != nil && errors.Is(checkCtx.Err(), context.DeadlineExceeded):
		check.Status = "unhealthy"
		check.Error = "timeout"
	case err != nil:
		check.Status = "unhealthy"
		check.Error = err.Error()
	case !info.SelfReady || !info.Synced:
		check.Status = "unhealthy"
		check.Error = "node is not ready or not synced"
		check.Metadata["self_ready"] = info.SelfReady
		check.Metadata["synced"] = info.Synced
	default:
		check.Status = "healthy"
		check.Metadata["clique_id"] = info.CliqueID
	}
	return check
}
