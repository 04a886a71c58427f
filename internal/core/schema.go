package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SchemaVersion is the version written by EncodeLedger. Version 1 is the bare
// JSON array of receipts; version 2 wraps it in an envelope and adds the
// advance/balance fields and the extra statuses.
const SchemaVersion = 2

type ledgerEnvelope struct {
	SchemaVersion int       `json:"schemaVersion"`
	Receipts      []Receipt `json:"receipts"`
}

// NewID returns a fresh receipt identifier.
func NewID() string {
	return uuid.NewString()
}

// EncodeLedger serializes records in the current envelope format.
func EncodeLedger(records []Receipt) ([]byte, error) {
	if records == nil {
		records = []Receipt{}
	}
	return json.Marshal(ledgerEnvelope{SchemaVersion: SchemaVersion, Receipts: records})
}

// DecodeLedger parses a stored ledger. Both the envelope and the legacy bare
// array are accepted; the result is passed through Normalize.
func DecodeLedger(data []byte) ([]Receipt, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode ledger: empty document")
	}
	var records []Receipt
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode ledger: %w", err)
		}
	case '{':
		var env ledgerEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode ledger: %w", err)
		}
		if env.SchemaVersion > SchemaVersion {
			return nil, fmt.Errorf("decode ledger: %w: %d", ErrUnsupportedVersion, env.SchemaVersion)
		}
		records = env.Receipts
	default:
		return nil, fmt.Errorf("decode ledger: unexpected %q", trimmed[0])
	}
	return Normalize(records), nil
}

// Normalize brings records up to the current schema: missing or repeated
// ids are replaced with fresh ones, empty statuses become Pending and derived
// amounts are recomputed. The slice is modified in place and returned; nil
// becomes empty.
func Normalize(records []Receipt) []Receipt {
	if records == nil {
		return []Receipt{}
	}
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		r := &records[i]
		if _, dup := seen[r.ID]; dup || strings.TrimSpace(r.ID) == "" {
			r.ID = NewID()
		}
		seen[r.ID] = struct{}{}
		if r.Status == "" {
			r.Status = StatusPending
		}
		r.Derive()
	}
	return records
}
