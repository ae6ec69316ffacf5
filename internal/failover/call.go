package failover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrServiceUnavailable matches every *ServiceUnavailableError via errors.Is.
var ErrServiceUnavailable = errors.New("service unavailable")

var (
	attemptFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "failover_attempt_failures_total",
		Help: "Failed call attempts per pool endpoint.",
	}, []string{"pool", "endpoint"})

	preferredSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "failover_preferred_switches_total",
		Help: "Times a pool moved its preferred endpoint.",
	}, []string{"pool"})

	exhaustions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "failover_exhausted_total",
		Help: "Calls that failed on every endpoint of a pool.",
	}, []string{"pool", "operation"})
)

// Operation identifies a call for logs and errors.
type Operation struct {
	Name   string
	Params map[string]any
}

// ServiceUnavailableError is returned when every endpoint failed every attempt.
type ServiceUnavailableError struct {
	Pool      string
	Operation Operation
	Attempts  int
	Err       error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s %v failed after %d attempts: %v",
		e.Pool, e.Operation.Name, e.Operation.Params, e.Attempts, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

func (e *ServiceUnavailableError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// Policy controls per-endpoint retries.
// A Multiplier of 1 gives a fixed backoff; above 1 the delay grows exponentially.
type Policy struct {
	Attempts   int
	Backoff    time.Duration
	Multiplier float64
}

// DefaultPolicy is three attempts per endpoint with a fixed 100ms pause.
var DefaultPolicy = Policy{Attempts: 3, Backoff: 100 * time.Millisecond, Multiplier: 1}

func (p Policy) delay(attempt int) time.Duration {
	if p.Multiplier <= 1 {
		return p.Backoff
	}
	return time.Duration(float64(p.Backoff) * math.Pow(p.Multiplier, float64(attempt)))
}

// Call runs fn against the pool, preferred endpoint first and then the rest in
// configured order, up to policy.Attempts times each. The first endpoint that
// succeeds becomes preferred. A result with no data is still a success.
func Call[T any](ctx context.Context, pool *Pool, policy Policy, op Operation, fn func(ctx context.Context, endpoint string) (T, error)) (T, error) {
	var zero T
	attempts := max(policy.Attempts, 1)

	var lastErr error
	total := 0
	for _, endpoint := range pool.order() {
		for attempt := range attempts {
			if err := ctx.Err(); err != nil {
				return zero, err
			}

			total++
			result, err := fn(ctx, endpoint)
			if err == nil {
				if pool.promote(endpoint) {
					preferredSwitches.WithLabelValues(pool.name).Inc()
					slog.Info("preferred endpoint changed", "pool", pool.name, "endpoint", endpoint)
				}
				return result, nil
			}
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}

			lastErr = err
			attemptFailures.WithLabelValues(pool.name, endpoint).Inc()
			slog.Warn("endpoint call failed, retrying",
				"pool", pool.name,
				"endpoint", endpoint,
				"operation", op.Name,
				"attempt", attempt+1,
				"error_type", fmt.Sprintf("%T", err),
				"error", err,
			)

			if attempt < attempts-1 {
				select {
				case <-ctx.Done():
					return zero, ctx.Err()
				case <-time.After(policy.delay(attempt)):
				}
			}
		}
	}

	exhaustions.WithLabelValues(pool.name, op.Name).Inc()
	return zero, &ServiceUnavailableError{
		Pool:      pool.name,
		Operation: op,
		Attempts:  total,
		Err:       lastErr,
	}
}
