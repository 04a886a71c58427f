// Package backup reads and writes the portable ledger backup file: a pretty
// printed JSON array of receipts.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"

	"receipts/internal/core"
)

var (
	ErrEmptyLedger   = errors.New("no records to back up")
	ErrInvalidJSON   = errors.New("backup is not valid JSON")
	ErrNotArray      = errors.New("backup must be a JSON array of receipts")
	ErrInvalidRecord = errors.New("invalid receipt in backup")
)

// Filename is the download name for a backup taken on t.
func Filename(t time.Time) string {
	return fmt.Sprintf("RECEIPT_MANAGER_PRO_BACKUP_%s.json", t.Format(core.DateLayout))
}

// Export encodes records with two-space indentation. An empty ledger is
// refused with ErrEmptyLedger.
func Export(records []core.Receipt) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrEmptyLedger
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// Parse validates and decodes a backup file. Records are normalized the same
// way a stored ledger is: derived fields are recomputed and missing ids are
// assigned.
func Parse(data []byte) ([]core.Receipt, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, ErrInvalidJSON
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	records := make([]core.Receipt, 0, len(elems))
	for i, el := range elems {
		el = bytes.TrimSpace(el)
		if len(el) == 0 || el[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidRecord, i)
		}
		var r core.Receipt
		if err := json.Unmarshal(el, &r); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidRecord, i, err)
		}
		records = append(records, r)
	}
	return core.Normalize(records), nil
}

// Schema describes the backup file format.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		Mapper:                     mapType,
	}
	s := reflector.Reflect([]core.Receipt{})
	s.Title = "Receipt ledger backup"
	s.Description = "Array of receipts as written by the backup export."
	return s
}

func mapType(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeOf(core.Money{}):
		return &jsonschema.Schema{
			Type:        "number",
			Description: "Amount in rupees, at most two decimals.",
		}
	case reflect.TypeOf(core.Status("")):
		enum := make([]any, 0, len(core.Statuses))
		for _, st := range core.Statuses {
			enum = append(enum, string(st))
		}
		return &jsonschema.Schema{Type: "string", Enum: enum}
	}
	return nil
}
