// Package blob defines the key-value port the ledger is persisted through.
// Implementations live in the subpackages and in internal/storage.
package blob

import "context"

// Ports for outbound adapters.
type (
	// Store is an opaque string key-value store. Get reports found=false for
	// absent keys; only backend failures are returned as errors.
	Store interface {
		Get(ctx context.Context, key string) (value string, found bool, err error)
		Set(ctx context.Context, key, value string) error
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Locker is implemented by stores that can hand out short-lived
	// cross-process locks. release must be called once the work is done.
	Locker interface {
		Lock(ctx context.Context, key string) (release func(), err error)
	}
)
