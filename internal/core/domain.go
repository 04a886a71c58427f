// Package core holds the receipt domain and the derivation engine.
//
// Receipt, Status and Money describe a ledger entry. Everything derived
// from the collection (per-record amounts, the next receipt number, the
// financial summary and the dashboard trends) is computed here by pure
// functions and never stored.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for receipt dates.
const DateLayout = "2006-01-02"

const (
	StatusPending        Status = "Pending"
	StatusPaid           Status = "Paid"
	StatusPartiallyPaid  Status = "Partially Paid"
	StatusWorkInProgress Status = "Work In Progress"
	StatusCompleted      Status = "Completed"
	StatusCancelled      Status = "Cancelled"
)

type (
	// Status is the lifecycle label of a receipt. Only the values in
	// Statuses are valid.
	Status string

	Receipt struct {
		ID              string `json:"id"`
		Date            string `json:"date" jsonschema:"format=date"`
		ReceiptNo       string `json:"receiptNo"`
		Name            string `json:"name" jsonschema:"required"`
		ItemDescription string `json:"itemDescription" jsonschema:"required"`
		CustomerRequest string `json:"customerRequest"`
		Quantity        int    `json:"quantity" jsonschema:"required,minimum=1"`
		Price           Money  `json:"price" jsonschema:"required"`
		Discount        Money  `json:"discount"`
		Advance         *Money `json:"advance,omitempty"`
		Amount          Money  `json:"amount" jsonschema_description:"Derived: quantity x price. Recomputed on import."`
		TotalAmount     Money  `json:"totalAmount" jsonschema_description:"Derived: amount - discount. Recomputed on import."`
		Balance         *Money `json:"balance,omitempty" jsonschema_description:"Derived: totalAmount - advance. Recomputed on import."`
		Status          Status `json:"status"`
	}

	// ReceiptInput carries the user-editable fields of a receipt. Derived
	// amounts and the id are never accepted from callers.
	ReceiptInput struct {
		Date            string `json:"date" validate:"required,datetime=2006-01-02"`
		ReceiptNo       string `json:"receiptNo" validate:"max=64"`
		Name            string `json:"name" validate:"required,notblank,max=200"`
		ItemDescription string `json:"itemDescription" validate:"required,notblank,max=500"`
		CustomerRequest string `json:"customerRequest" validate:"max=1000"`
		Quantity        int    `json:"quantity" validate:"gte=1"`
		Price           Money  `json:"price" validate:"gte=0"`
		Discount        Money  `json:"discount" validate:"gte=0"`
		Advance         *Money `json:"advance,omitempty" validate:"omitempty,gte=0"`
		Status          Status `json:"status" validate:"omitempty,status"`
	}
)

// Statuses lists every valid status in display order.
var Statuses = []Status{
	StatusPending,
	StatusPaid,
	StatusPartiallyPaid,
	StatusWorkInProgress,
	StatusCompleted,
	StatusCancelled,
}

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyDescription   = errors.New("empty item description")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

// ParseStatus maps a label to its canonical Status. Matching ignores case,
// spaces, underscores and hyphens so "PartiallyPaid" and "partially paid"
// both resolve to StatusPartiallyPaid.
func ParseStatus(s string) (Status, error) {
	key := statusKey(s)
	for _, st := range Statuses {
		if statusKey(string(st)) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func statusKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) Cancelled() bool { return s == StatusCancelled }

// UnmarshalJSON resolves aliases through ParseStatus. An empty label is kept
// empty so callers can apply their default.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, string(b))
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ValidateDate checks a YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}

// Today returns the current local date in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate applies the field rules of the entry form. The record store does
// not call it; outer surfaces do.
func (in ReceiptInput) Validate() error {
	if err := ValidateDate(in.Date); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(in.ItemDescription) == "" {
		return ErrEmptyDescription
	}
	if in.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := in.Price.Validate(); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if err := in.Discount.Validate(); err != nil {
		return fmt.Errorf("discount: %w", err)
	}
	if in.Advance != nil {
		if err := in.Advance.Validate(); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// NewInput returns the default entry form values: today, one unit, zero
// price and discount, Pending.
func NewInput() ReceiptInput {
	return ReceiptInput{
		Date:     Today(),
		Quantity: 1,
		Status:   StatusPending,
	}
}

// Input extracts the editable fields of r.
func (r Receipt) Input() ReceiptInput {
	in := ReceiptInput{
		Date:            r.Date,
		ReceiptNo:       r.ReceiptNo,
		Name:            r.Name,
		ItemDescription: r.ItemDescription,
		CustomerRequest: r.CustomerRequest,
		Quantity:        r.Quantity,
		Price:           r.Price,
		Discount:        r.Discount,
		Status:          r.Status,
	}
	if r.Advance != nil {
		adv := *r.Advance
		in.Advance = &adv
	}
	return in
}

// Apply copies the editable fields of in onto r and recomputes the derived
// amounts. Blank receipt numbers and statuses keep the current value.
func (r *Receipt) Apply(in ReceiptInput) {
	r.Date = in.Date
	if strings.TrimSpace(in.ReceiptNo) != "" {
		r.ReceiptNo = in.ReceiptNo
	}
	r.Name = in.Name
	r.ItemDescription = in.ItemDescription
	r.CustomerRequest = in.CustomerRequest
	r.Quantity = in.Quantity
	r.Price = in.Price
	r.Discount = in.Discount
	r.Advance = nil
	if in.Advance != nil {
		adv := *in.Advance
		r.Advance = &adv
	}
	if in.Status != "" {
		r.Status = in.Status
	}
	r.Derive()
}
