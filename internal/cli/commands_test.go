package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"receipts/internal/backup"
	"receipts/internal/blob/memory"
	"receipts/internal/core"
	"receipts/internal/ledger"
	"receipts/internal/services"
)

func newRunner(t *testing.T, stdin string) (*Runner, *bytes.Buffer) {
	t.Helper()
	store := ledger.NewStore(memory.New(), ledger.Options{})
	svc := services.NewReceiptService(store, nil)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	out := &bytes.Buffer{}
	return &Runner{
		Service: svc,
		In:      strings.NewReader(stdin),
		Out:     out,
		Now:     func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) },
	}, out
}

func addSample(t *testing.T, r *Runner, name string) {
	t.Helper()
	err := r.Run(context.Background(), []string{"add",
		"-date", "2024-05-01", "-name", name, "-item", "Frame",
		"-qty", "2", "-price", "150", "-discount", "20.5", "-status", "partially paid"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestRun_AddListNext(t *testing.T) {
	r, out := newRunner(t, "")
	addSample(t, r, "Asha")

	if !strings.Contains(out.String(), "Added AB_RNC - 01 for Asha: ₹279.5") {
		t.Fatalf("unexpected add output: %q", out.String())
	}

	recs := r.Service.List()
	if len(recs) != 1 || recs[0].Status != core.StatusPartiallyPaid || recs[0].Discount.Cents != 2050 {
		t.Fatalf("unexpected ledger: %+v", recs)
	}

	out.Reset()
	if err := r.Run(context.Background(), []string{"list"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "AB_RNC - 01") || !strings.Contains(out.String(), "Partially Paid") {
		t.Fatalf("unexpected list output: %q", out.String())
	}

	out.Reset()
	if err := r.Run(context.Background(), []string{"next"}); err != nil {
		t.Fatalf("next: %v", err)
	}
	if strings.TrimSpace(out.String()) != "AB_RNC - 02" {
		t.Fatalf("next = %q", out.String())
	}
}

func TestRun_AddAcceptsIndianGrouping(t *testing.T) {
	r, out := newRunner(t, "")
	err := r.Run(context.Background(), []string{"add",
		"-name", "Ravi", "-item", "Album", "-price", "1,23,456", "-discount", "1,200"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	recs := r.Service.List()
	if len(recs) != 1 || recs[0].Price.Cents != 12345600 || recs[0].Discount.Cents != 120000 {
		t.Fatalf("unexpected ledger: %+v", recs)
	}
	if !strings.Contains(out.String(), "₹1,22,256") {
		t.Fatalf("unexpected add output: %q", out.String())
	}
}

func TestRun_AddRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing name", []string{"add", "-item", "x"}, core.ErrEmptyName},
		{"negative price", []string{"add", "-name", "a", "-item", "x", "-price", "-1"}, core.ErrInvalidAmount},
		{"misplaced comma", []string{"add", "-name", "a", "-item", "x", "-price", "1.2,3"}, core.ErrInvalidAmount},
		{"bad status", []string{"add", "-name", "a", "-item", "x", "-status", "lost"}, core.ErrInvalidStatus},
		{"zero quantity", []string{"add", "-name", "a", "-item", "x", "-qty", "0"}, core.ErrInvalidQuantity},
		{"bad date", []string{"add", "-name", "a", "-item", "x", "-date", "01/02/2024"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRunner(t, "")
			err := r.Run(context.Background(), tt.args)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run() error = %v, want %v", err, tt.want)
			}
			if n := len(r.Service.List()); n != 0 {
				t.Fatalf("ledger changed: %d records", n)
			}
		})
	}
}

func TestRun_DeleteConfirmation(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantErr  error
		wantLeft int
	}{
		{"declined", "n\n", nil, ErrAborted, 1},
		{"empty answer", "\n", nil, ErrAborted, 1},
		{"accepted", "y\n", nil, nil, 0},
		{"accepted long form", "YES\n", nil, nil, 0},
		{"skipped with --yes", "", []string{"--yes"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRunner(t, tt.stdin)
			addSample(t, r, "Asha")
			id := r.Service.List()[0].ID

			args := append([]string{"delete", id}, tt.args...)
			err := r.Run(context.Background(), args)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if n := len(r.Service.List()); n != tt.wantLeft {
				t.Fatalf("records left = %d, want %d", n, tt.wantLeft)
			}
		})
	}
}

func TestRun_DeleteUnknown(t *testing.T) {
	r, _ := newRunner(t, "y\n")
	err := r.Run(context.Background(), []string{"delete", "missing"})
	if !errors.Is(err, ledger.ErrReceiptNotFound) {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRun_BackupAndImport(t *testing.T) {
	dir := t.TempDir()
	r, out := newRunner(t, "")

	if err := r.Run(context.Background(), []string{"backup", filepath.Join(dir, "empty.json")}); !errors.Is(err, backup.ErrEmptyLedger) {
		t.Fatalf("empty backup error = %v", err)
	}

	addSample(t, r, "Asha")
	addSample(t, r, "Ravi")

	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)

	out.Reset()
	if err := r.Run(context.Background(), []string{"backup"}); err != nil {
		t.Fatalf("backup: %v", err)
	}
	name := "RECEIPT_MANAGER_PRO_BACKUP_2024-06-01.json"
	if !strings.Contains(out.String(), "Backed up 2 receipts to "+name) {
		t.Fatalf("unexpected backup output: %q", out.String())
	}

	other, otherOut := newRunner(t, "y\n")
	if err := other.Run(context.Background(), []string{"import", name}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(otherOut.String(), "Replace 0 receipts with 2") {
		t.Fatalf("import prompt missing count: %q", otherOut.String())
	}
	got := other.Service.List()
	if len(got) != 2 || got[1].Name != "Ravi" {
		t.Fatalf("unexpected imported ledger: %+v", got)
	}

	declined, _ := newRunner(t, "no\n")
	if err := declined.Run(context.Background(), []string{"import", name}); !errors.Is(err, ErrAborted) {
		t.Fatalf("declined import error = %v", err)
	}
	if len(declined.Service.List()) != 0 {
		t.Fatal("declined import changed the ledger")
	}
}

func TestRun_ImportRejectsNonArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"receipts":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, _ := newRunner(t, "y\n")
	addSample(t, r, "Asha")

	if err := r.Run(context.Background(), []string{"import", path}); !errors.Is(err, backup.ErrNotArray) {
		t.Fatalf("Run() error = %v, want ErrNotArray", err)
	}
	if len(r.Service.List()) != 1 {
		t.Fatal("rejected import changed the ledger")
	}
}

func TestRun_Wipe(t *testing.T) {
	r, _ := newRunner(t, "")
	addSample(t, r, "Asha")

	if err := r.Run(context.Background(), []string{"wipe"}); !errors.Is(err, ErrAborted) {
		t.Fatalf("wipe without answer = %v", err)
	}
	if len(r.Service.List()) != 1 {
		t.Fatal("aborted wipe changed the ledger")
	}

	if err := r.Run(context.Background(), []string{"wipe", "-y"}); err != nil {
		t.Fatalf("wipe: %v", err)
	}
	if len(r.Service.List()) != 0 {
		t.Fatal("wipe left records")
	}
}

func TestRun_SummaryDashboardSchemaExport(t *testing.T) {
	r, out := newRunner(t, "")
	addSample(t, r, "Asha")

	out.Reset()
	if err := r.Run(context.Background(), []string{"summary"}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out.String(), "₹279.5") {
		t.Fatalf("summary output: %q", out.String())
	}

	out.Reset()
	if err := r.Run(context.Background(), []string{"dashboard"}); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !strings.Contains(out.String(), `"averageTransaction": 280`) {
		t.Fatalf("dashboard output: %q", out.String())
	}

	out.Reset()
	if err := r.Run(context.Background(), []string{"schema"}); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out.String(), `"itemDescription"`) {
		t.Fatalf("schema output: %q", out.String())
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := r.Run(context.Background(), []string{"export-xlsx", path}); err != nil {
		t.Fatalf("export-xlsx: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatalf("workbook not written: %v", err)
	}
}

func TestRun_Usage(t *testing.T) {
	r, _ := newRunner(t, "")
	if err := r.Run(context.Background(), nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("no args error = %v", err)
	}
	if err := r.Run(context.Background(), []string{"frobnicate"}); !errors.Is(err, ErrUsage) {
		t.Fatalf("unknown command error = %v", err)
	}
}
