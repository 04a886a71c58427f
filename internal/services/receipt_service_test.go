package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"receipts/internal/amqp"
	"receipts/internal/blob/memory"
	"receipts/internal/core"
	"receipts/internal/ledger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
	closed bool
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func newService(t *testing.T, pub Publisher) *ReceiptService {
	t.Helper()
	store := ledger.NewStore(memory.New(), ledger.Options{})
	svc := NewReceiptService(store, pub)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc
}

func sampleInput() core.ReceiptInput {
	return core.ReceiptInput{
		Date:            "2024-01-05",
		Name:            "Asha",
		ItemDescription: "Mug",
		Quantity:        2,
		Price:           core.Rupees(150),
		Discount:        core.Rupees(20),
	}
}

func TestReceiptServicePublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newService(t, pub)

	r, err := svc.Create(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, r.ID, sampleInput()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Wipe(ctx); err != nil {
		t.Fatalf("wipe: %v", err)
	}

	want := []amqp.EventType{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted, amqp.EventReplaced}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(pub.events))
	}
	for i, typ := range want {
		if pub.events[i].Type != typ {
			t.Fatalf("event %d: expected %s, got %s", i, typ, pub.events[i].Type)
		}
	}
	if pub.events[0].ReceiptID != r.ID || pub.events[0].Count != 1 {
		t.Fatalf("unexpected create event: %+v", pub.events[0])
	}
	if pub.events[1].Revision <= pub.events[0].Revision {
		t.Fatalf("revisions not increasing: %d then %d", pub.events[0].Revision, pub.events[1].Revision)
	}
}

func TestReceiptServicePublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newService(t, pub)

	if _, err := svc.Create(context.Background(), sampleInput()); err != nil {
		t.Fatalf("publish failure leaked into create: %v", err)
	}
	if len(svc.List()) != 1 {
		t.Fatalf("receipt not saved")
	}
}

func TestReceiptServiceWithoutPublisher(t *testing.T) {
	svc := newService(t, nil)
	if _, err := svc.Create(context.Background(), sampleInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestReceiptServiceMissingID(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ledger.ErrReceiptNotFound) {
		t.Fatalf("expected ErrReceiptNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event expected for failed delete")
	}
}

func TestReceiptServiceAggregates(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	if _, err := svc.Create(ctx, sampleInput()); err != nil {
		t.Fatal(err)
	}
	cancelled := sampleInput()
	cancelled.Status = core.StatusCancelled
	if _, err := svc.Create(ctx, cancelled); err != nil {
		t.Fatal(err)
	}

	s := svc.Summary()
	if s.TotalRevenue != core.Rupees(280) || s.TotalCancelled != core.Rupees(280) || s.CancelledReceiptCount != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	d, rev := svc.Dashboard()
	if rev != svc.Revision() || d.Summary != s || d.AverageTransaction != core.Rupees(280) {
		t.Fatalf("unexpected dashboard: %+v rev=%d", d, rev)
	}
	if svc.NextReceiptNo() != "AB_RNC - 03" {
		t.Fatalf("unexpected next number %q", svc.NextReceiptNo())
	}
}

func TestReceiptServiceImport(t *testing.T) {
	svc := newService(t, nil)
	err := svc.Import(context.Background(), []core.Receipt{{ID: "a", Quantity: 1, Price: core.Rupees(5), Status: core.StatusPaid}})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	r, err := svc.Get("a")
	if err != nil || r.TotalAmount != core.Rupees(5) {
		t.Fatalf("unexpected imported record %+v err=%v", r, err)
	}
}

func TestReceiptServiceCloseReleasesPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(t, pub)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("publisher not closed")
	}
}
