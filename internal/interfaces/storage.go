package interfaces

import "context"

// ResponseCache stores raw provider responses keyed by provider and request.
// Implementations decide lifetime: run-scoped for CLI runs, TTL-bound for
// the server. Passed into clients explicitly.
type ResponseCache interface {
	Get(ctx context.Context, provider, key string) ([]byte, bool)
	Set(ctx context.Context, provider, key string, payload []byte) error
	Close() error
}
