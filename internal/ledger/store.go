// Package ledger holds the authoritative, ordered collection of receipts and
// persists it through a blob.Store after every mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"receipts/internal/blob"
	"receipts/internal/core"
	"receipts/internal/log"
)

// DefaultKey is the blob key the ledger is stored under.
const DefaultKey = "rupee_receipts"

var ErrReceiptNotFound = errors.New("receipt not found")

type Options struct {
	Key    string
	Prefix string
	Logger *slog.Logger
}

// Store is safe for concurrent use. Every mutation serializes the whole
// collection and writes it before the in-memory state changes, so a failed
// write leaves both memory and storage at the previous version.
type Store struct {
	mu       sync.RWMutex
	blob     blob.Store
	key      string
	prefix   string
	logger   *slog.Logger
	records  []core.Receipt
	revision uint64
}

func NewStore(b blob.Store, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Prefix == "" {
		opts.Prefix = core.DefaultReceiptPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		blob:    b,
		key:     opts.Key,
		prefix:  opts.Prefix,
		logger:  opts.Logger.With(log.FieldComponent, log.ComponentLedger),
		records: []core.Receipt{},
	}
}

// Load replaces the in-memory collection with the stored one. An absent key
// yields an empty ledger. A value that cannot be decoded also yields an
// empty ledger and is only logged. A backend read failure yields an empty
// ledger and is returned.
func (s *Store) Load(ctx context.Context) error {
	raw, found, err := s.blob.Get(ctx, s.key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revision++

	if err != nil {
		s.records = []core.Receipt{}
		s.logger.ErrorContext(ctx, "Failed to read ledger",
			log.FieldOperation, log.OpLoad,
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypeStorage,
			log.FieldError, err)
		return fmt.Errorf("load ledger: %w", err)
	}
	if !found {
		s.records = []core.Receipt{}
		s.logger.InfoContext(ctx, "No stored ledger, starting empty", log.FieldKey, s.key)
		return nil
	}
	records, err := core.DecodeLedger([]byte(raw))
	if err != nil {
		s.records = []core.Receipt{}
		s.logger.WarnContext(ctx, "Stored ledger is unreadable, starting empty",
			log.FieldOperation, log.OpLoad,
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypeCorrupt,
			log.FieldError, err)
		return nil
	}
	s.records = records
	s.logger.InfoContext(ctx, "Ledger loaded", log.FieldCount, len(records), log.FieldRevision, s.revision)
	return nil
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []core.Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Snapshot returns the collection together with the revision it belongs to.
func (s *Store) Snapshot() ([]core.Receipt, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records), s.revision
}

func (s *Store) Get(id string) (core.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return clone(s.records[i]), nil
	}
	return core.Receipt{}, ErrReceiptNotFound
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Revision increases with every successful mutation or load.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// NextReceiptNo suggests the next receipt number for the current collection.
func (s *Store) NextReceiptNo() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.NextReceiptNo(s.records, s.prefix)
}

// Create appends a new receipt. A blank receipt number is filled with the
// current suggestion and a blank status becomes Pending. Field values are
// not validated here.
func (s *Store) Create(ctx context.Context, in core.ReceiptInput) (core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := core.Receipt{
		ID:        core.NewID(),
		ReceiptNo: core.NextReceiptNo(s.records, s.prefix),
		Status:    core.StatusPending,
	}
	r.Apply(in)

	next := append(cloneAll(s.records), r)
	if err := s.commit(ctx, next, log.OpCreate); err != nil {
		return core.Receipt{}, err
	}
	s.logger.InfoContext(ctx, "Receipt created", log.NewFields().
		WithOperation(log.OpCreate).
		WithReceipt(r.ID, r.ReceiptNo, r.TotalAmount.Cents, string(r.Status)).
		ToSlice()...)
	return clone(r), nil
}

// Update replaces the editable fields of the receipt with the given id and
// keeps its position.
func (s *Store) Update(ctx context.Context, id string, in core.ReceiptInput) (core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Receipt{}, fmt.Errorf("update %s: %w", id, ErrReceiptNotFound)
	}
	next := cloneAll(s.records)
	next[i].Apply(in)

	if err := s.commit(ctx, next, log.OpUpdate); err != nil {
		return core.Receipt{}, err
	}
	r := s.records[i]
	s.logger.InfoContext(ctx, "Receipt updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithReceipt(r.ID, r.ReceiptNo, r.TotalAmount.Cents, string(r.Status)).
		ToSlice()...)
	return clone(r), nil
}

// Delete removes the receipt with the given id permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrReceiptNotFound)
	}
	next := make([]core.Receipt, 0, len(s.records)-1)
	next = append(next, cloneAll(s.records[:i])...)
	next = append(next, cloneAll(s.records[i+1:])...)

	if err := s.commit(ctx, next, log.OpDelete); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Receipt deleted", log.FieldOperation, log.OpDelete, log.FieldReceiptID, id)
	return nil
}

// ReplaceAll substitutes the whole collection, as done by import and wipe.
// Derived fields are recomputed; nil is stored as an empty ledger.
func (s *Store) ReplaceAll(ctx context.Context, records []core.Receipt) error {
	next := core.Normalize(cloneAll(records))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commit(ctx, next, log.OpReplace); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Ledger replaced", log.FieldOperation, log.OpReplace, log.FieldCount, len(next))
	return nil
}

// commit persists next and then installs it. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, next []core.Receipt, op string) error {
	data, err := core.EncodeLedger(next)
	if err != nil {
		return fmt.Errorf("%s: encode ledger: %w", op, err)
	}
	if err := s.blob.Set(ctx, s.key, string(data)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist ledger",
			log.FieldOperation, op,
			log.FieldKey, s.key,
			log.FieldErrorType, log.ErrorTypeStorage,
			log.FieldError, err)
		return fmt.Errorf("%s: persist ledger: %w", op, err)
	}
	s.records = next
	s.revision++
	return nil
}

func (s *Store) indexOf(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(r core.Receipt) core.Receipt {
	if r.Advance != nil {
		v := *r.Advance
		r.Advance = &v
	}
	if r.Balance != nil {
		v := *r.Balance
		r.Balance = &v
	}
	return r
}

func cloneAll(in []core.Receipt) []core.Receipt {
	out := make([]core.Receipt, len(in))
	for i, r := range in {
		out[i] = clone(r)
	}
	return out
}
