package memory

import (
	"context"
	"sync"

	"receipts/internal/core"
	"receipts/internal/export"
	"receipts/internal/sheets"
)

var _ sheets.LedgerMirror = (*Mirror)(nil)

// Mirror keeps the last mirrored table in memory. It stands in for the
// Google Sheets mirror in tests and local runs.
type Mirror struct {
	mu     sync.Mutex
	rows   [][]any
	writes int
	err    error
}

func New() *Mirror {
	return &Mirror{}
}

// FailWith makes subsequent Mirror calls return err. nil restores success.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Mirror stores the header and one row per record.
func (m *Mirror) Mirror(_ context.Context, records []core.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = export.Rows(records)
	m.writes++
	return nil
}

// Rows returns a copy of the last mirrored table, header included.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Writes reports how many times Mirror succeeded.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
