package weather

import "errors"

var (
	// ErrNotFound means the coordinates or place do not resolve upstream.
	// A data problem, not a transient fault: callers must not retry it.
	ErrNotFound = errors.New("weather: not found")
	// ErrUpstreamUnavailable covers network failures, 5xx responses and an
	// open circuit breaker. Retried with a bounded budget, then surfaced.
	ErrUpstreamUnavailable = errors.New("weather: upstream unavailable")
)
