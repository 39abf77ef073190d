// Package breaker builds circuit breakers for outbound collaborators.
package breaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"dealbridge-billing/internal/metrics"
)

type Config struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultConfig() Config {
	return Config{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// New returns a breaker that opens after cfg.FailureThreshold consecutive
// failures. ignore lists errors that count as successes, such as
// validation failures the remote side reported correctly.
func New[T any](name string, cfg Config, logger *zap.Logger, ignore func(error) bool) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.RecordBreakerState(name, float64(to))
		},
	}
	if ignore != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || ignore(err)
		}
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
