package sheets

import (
	"context"

	"receipts/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror replaces the contents of an external tabular copy of the
	// ledger with records, in order.
	LedgerMirror interface {
		Mirror(ctx context.Context, records []core.Receipt) error
	}

	// LedgerReader returns the persisted ledger as another process wrote it.
	LedgerReader interface {
		ReadLedger(ctx context.Context) ([]core.Receipt, error)
	}
)
