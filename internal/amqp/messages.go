package amqp

import (
	"encoding/json"
	"time"
)

// EventType names the ledger mutation that produced an event.
type EventType string

const (
	EventCreated  EventType = "receipt.created"
	EventUpdated  EventType = "receipt.updated"
	EventDeleted  EventType = "receipt.deleted"
	EventReplaced EventType = "ledger.replaced"
)

// LedgerEvent is a lightweight change notification. It carries no receipt
// data; consumers read the ledger from the shared store and use Timestamp to
// skip notifications older than their last read. Revision is per server
// process and restarts at zero.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	ReceiptID string    `json:"receipt_id,omitempty"`
	Revision  uint64    `json:"revision"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(typ EventType, receiptID string, revision uint64, count int) *LedgerEvent {
	return &LedgerEvent{
		Type:      typ,
		ReceiptID: receiptID,
		Revision:  revision,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON creates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
