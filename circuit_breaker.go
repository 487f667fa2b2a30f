package redisstack

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	breakerMinRequests  = 3
	breakerFailureRatio = 0.6
)

// NewCircuitBreakerConfig returns a Config.NewCircuitBreaker factory. A
// server's breaker opens once breakerMinRequests requests were counted in
// interval and at least 60% of them failed; it lets maxRequests probes
// through after timeout.
//
// Only transport failures count. Error replies are values, and a caller
// giving up or closing the client says nothing about the server.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(addr string) *gobreaker.CircuitBreaker[bool] {
	return func(addr string) *gobreaker.CircuitBreaker[bool] {
		return gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
			Name:         addr,
			MaxRequests:  maxRequests,
			Interval:     interval,
			Timeout:      timeout,
			ReadyToTrip:  tripOnFailureRatio,
			IsSuccessful: serverHealthy,
		})
	}
}

func tripOnFailureRatio(counts gobreaker.Counts) bool {
	if counts.Requests < breakerMinRequests {
		return false
	}
	return float64(counts.TotalFailures) >= breakerFailureRatio*float64(counts.Requests)
}

func serverHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrPoolClosed) ||
		errors.Is(err, ErrClientClosed)
}
