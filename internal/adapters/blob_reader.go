package adapters

import (
	"context"
	"fmt"

	"receipts/internal/blob"
	"receipts/internal/core"
	"receipts/internal/ledger"
	"receipts/internal/sheets"
)

var _ sheets.LedgerReader = (*BlobLedgerReader)(nil)

// BlobLedgerReader reads the ledger straight from the shared blob store so
// the worker sees what the server last persisted without holding a
// ledger.Store of its own.
type BlobLedgerReader struct {
	store blob.Store
	key   string
}

func NewBlobLedgerReader(store blob.Store, key string) *BlobLedgerReader {
	if key == "" {
		key = ledger.DefaultKey
	}
	return &BlobLedgerReader{
		store: store,
		key:   key,
	}
}

// ReadLedger implements sheets.LedgerReader. An absent key is an empty
// ledger; an undecodable value is an error so the mirror keeps its last
// good copy.
func (a *BlobLedgerReader) ReadLedger(ctx context.Context) ([]core.Receipt, error) {
	raw, found, err := a.store.Get(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("read ledger %q: %w", a.key, err)
	}
	if !found {
		return []core.Receipt{}, nil
	}
	records, err := core.DecodeLedger([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("read ledger %q: %w", a.key, err)
	}
	return records, nil
}

// Locker returns the store's cross-process lock when it has one.
func (a *BlobLedgerReader) Locker() (blob.Locker, bool) {
	l, ok := a.store.(blob.Locker)
	return l, ok
}
