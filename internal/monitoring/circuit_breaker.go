package monitoring

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dwarvesf/alph-swap-backend/internal/alphrpc"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

// CircuitBreakerAlphRPC wraps alphrpc.IAlphRPC with circuit breaker functionality
type CircuitBreakerAlphRPC struct {
	wrapped        alphrpc.IAlphRPC
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

// NewCircuitBreakerAlphRPC creates a new circuit breaker wrapper for the Alephium node client
func NewCircuitBreakerAlphRPC(wrapped alphrpc.IAlphRPC, config CircuitBreakerConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) (*CircuitBreakerAlphRPC, error) {
	return NewCircuitBreakerAlphRPCWithTimeout(wrapped, config, DefaultTimeoutConfig, metrics, logger)
}

// NewCircuitBreakerAlphRPCWithTimeout creates a new circuit breaker wrapper with custom timeout config
func NewCircuitBreakerAlphRPCWithTimeout(wrapped alphrpc.IAlphRPC, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) (*CircuitBreakerAlphRPC, error) {
	if err := validateCircuitBreakerConfig(config); err != nil {
		return nil, err
	}

	cb := &CircuitBreakerAlphRPC{
		wrapped:       wrapped,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        AlephiumNodeAPI,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		// a rejected request proves the node is up
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, alphrpc.ErrRequestRejected)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(AlephiumNodeAPI, to)
		},
	}

	cb.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	metrics.UpdateCircuitBreakerState(AlephiumNodeAPI, gobreaker.StateClosed)
	return cb, nil
}

// State returns the current breaker state.
func (cb *CircuitBreakerAlphRPC) State() gobreaker.State {
	return cb.circuitBreaker.State()
}

func (cb *CircuitBreakerAlphRPC) AddressBalance(ctx context.Context, address string) (*alphrpc.AddressBalance, error) {
	result, err := cb.execute(ctx, "address_balance", cb.timeoutConfig.RequestTimeout, func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.AddressBalance(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return result.(*alphrpc.AddressBalance), nil
}

func (cb *CircuitBreakerAlphRPC) TransactionStatus(ctx context.Context, txID string) (*alphrpc.TransactionStatus, error) {
	result, err := cb.execute(ctx, "transaction_status", cb.timeoutConfig.RequestTimeout, func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.TransactionStatus(ctx, txID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*alphrpc.TransactionStatus), nil
}

func (cb *CircuitBreakerAlphRPC) TransactionDetails(ctx context.Context, txID string) (*alphrpc.TransactionDetails, error) {
	result, err := cb.execute(ctx, "transaction_details", cb.timeoutConfig.RequestTimeout, func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.TransactionDetails(ctx, txID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*alphrpc.TransactionDetails), nil
}

func (cb *CircuitBreakerAlphRPC) TransferToken(ctx context.Context, transfer alphrpc.Transfer) (string, error) {
	result, err := cb.execute(ctx, "transfer_token", cb.timeoutConfig.TransferTimeout, func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.TransferToken(ctx, transfer)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (cb *CircuitBreakerAlphRPC) NodeInfo(ctx context.Context) (*alphrpc.SelfClique, error) {
	result, err := cb.execute(ctx, "health_check", cb.timeoutConfig.HealthCheckTimeout, func(ctx context.Context) (interface{}, error) {
		return cb.wrapped.NodeInfo(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*alphrpc.SelfClique), nil
}

// execute runs fn through the breaker with a per-operation deadline and
// records call metrics.
func (cb *CircuitBreakerAlphRPC) execute(ctx context.Context, operation string, timeout time.Duration, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return cb.circuitBreaker.Execute(func() (interface{}, error) {
		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		result, err := fn(callCtx)
		duration := time.Since(start).Seconds()

		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			cb.metrics.RecordTimeout(AlephiumNodeAPI, operation)
			cb.logError(operation, duration, err)
			return nil, fmt.Errorf("timeout: %w", err)
		}

		status := "success"
		if err != nil {
			status = "error"
			cb.logError(operation, duration, err)
		}
		cb.metrics.RecordAPICall(AlephiumNodeAPI, operation, status, duration)
		return result, err
	})
}

func (cb *CircuitBreakerAlphRPC) logError(operation string, duration float64, err error) {
	cb.logger.Error("External API call failed", map[string]string{
		"service":    AlephiumNodeAPI,
		"operation":  operation,
		"duration":   strconv.FormatFloat(duration, 'f', 3, 64),
		"error":      err.Error(),
		"error_type": string(classifyError(err)),
		"cb_state":   cb.circuitBreaker.State().String(),
	})
}

// classifyError classifies errors into different types for metrics and logging
func classifyError(err error) APIErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, alphrpc.ErrRequestRejected) {
		return ErrorTypeClientError
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case containsAny(errMsg, "timeout", "deadline exceeded", "context canceled"):
		return ErrorTypeTimeout
	case containsAny(errMsg, "network", "connection", "unreachable", "dns"):
		return ErrorTypeNetworkError
	case containsAny(errMsg, "500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable"):
		return ErrorTypeServerError
	case containsAny(errMsg, "400", "401", "403", "404", "429", "bad request", "unauthorized", "forbidden", "not found"):
		return ErrorTypeClientError
	}
	return ErrorTypeUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// validateCircuitBreakerConfig validates circuit breaker configuration
func validateCircuitBreakerConfig(config CircuitBreakerConfig) error {
	if config.MaxRequests == 0 {
		return fmt.Errorf("max_requests must be greater than 0")
	}
	if config.ConsecutiveFailureThreshold <= 0 {
		return fmt.Errorf("consecutive_failure_threshold must be greater than 0")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if config.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}
	return nil
}
