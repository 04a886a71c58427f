package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"receipts/internal/amqp"
	"receipts/internal/core"
	"receipts/internal/ledger"
)

// Publisher sends ledger change notifications. *amqp.Client implements it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// ReceiptService orchestrates ledger mutations and change notifications.
// The ledger write is authoritative; a failed publish is logged and never
// fails the operation.
type ReceiptService struct {
	store     *ledger.Store
	publisher Publisher
	closers   []io.Closer
}

// NewReceiptService wires store and publisher. publisher may be nil.
// closers are released by Close in order.
func NewReceiptService(store *ledger.Store, publisher Publisher, closers ...io.Closer) *ReceiptService {
	return &ReceiptService{
		store:     store,
		publisher: publisher,
		closers:   closers,
	}
}

func (s *ReceiptService) Load(ctx context.Context) error {
	return s.store.Load(ctx)
}

func (s *ReceiptService) List() []core.Receipt {
	return s.store.List()
}

func (s *ReceiptService) Get(id string) (core.Receipt, error) {
	return s.store.Get(id)
}

func (s *ReceiptService) Revision() uint64 {
	return s.store.Revision()
}

func (s *ReceiptService) NextReceiptNo() string {
	return s.store.NextReceiptNo()
}

func (s *ReceiptService) Summary() core.FinancialSummary {
	return core.Summarize(s.store.List())
}

// Dashboard returns every aggregate with the revision it was computed from.
func (s *ReceiptService) Dashboard() (core.Dashboard, uint64) {
	records, rev := s.store.Snapshot()
	return core.BuildDashboard(records), rev
}

func (s *ReceiptService) Create(ctx context.Context, in core.ReceiptInput) (core.Receipt, error) {
	r, err := s.store.Create(ctx, in)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("create receipt: %w", err)
	}
	s.publish(ctx, amqp.EventCreated, r.ID)
	return r, nil
}

func (s *ReceiptService) Update(ctx context.Context, id string, in core.ReceiptInput) (core.Receipt, error) {
	r, err := s.store.Update(ctx, id, in)
	if err != nil {
		return core.Receipt{}, err
	}
	s.publish(ctx, amqp.EventUpdated, r.ID)
	return r, nil
}

func (s *ReceiptService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventDeleted, id)
	return nil
}

// Import replaces the ledger with records.
func (s *ReceiptService) Import(ctx context.Context, records []core.Receipt) error {
	if err := s.store.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("import ledger: %w", err)
	}
	s.publish(ctx, amqp.EventReplaced, "")
	return nil
}

// Wipe empties the ledger.
func (s *ReceiptService) Wipe(ctx context.Context) error {
	if err := s.store.ReplaceAll(ctx, nil); err != nil {
		return fmt.Errorf("wipe ledger: %w", err)
	}
	s.publish(ctx, amqp.EventReplaced, "")
	return nil
}

func (s *ReceiptService) publish(ctx context.Context, typ amqp.EventType, receiptID string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping ledger event", "type", typ)
		return
	}
	ev := amqp.NewLedgerEvent(typ, receiptID, s.store.Revision(), s.store.Len())
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", typ,
			"receipt_id", receiptID,
			"error", err)
	}
}

// Close releases the publisher and the configured closers.
func (s *ReceiptService) Close() error {
	var errs []error

	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close receipt service: %v", errs)
	}
	return nil
}
