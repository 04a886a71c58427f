package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"receipts/internal/backup"
	"receipts/internal/core"
	"receipts/internal/export"
	"receipts/internal/services"
)

var (
	// ErrUsage reports a malformed command line.
	ErrUsage = errors.New("usage")
	// ErrAborted is returned when the operator declines a confirmation.
	ErrAborted = errors.New("aborted")
)

const usage = `Usage: receiptctl <command> [args]

Commands:
  list                      list receipts in entry order
  add [flags]               add a receipt (see receiptctl add -h)
  next                      print the suggested next receipt number
  summary                   print the financial summary
  dashboard                 print every dashboard aggregate as JSON
  delete <id> [--yes]       delete one receipt
  backup [file]             write a JSON backup
  import <file> [--yes]     replace the ledger with a backup file
  wipe [--yes]              delete every receipt
  export-xlsx [file]        write an Excel workbook
  schema                    print the backup file JSON Schema`

// Runner executes receiptctl commands against a loaded service. In is read
// for confirmations; Out receives command output.
type Runner struct {
	Service *services.ReceiptService
	In      io.Reader
	Out     io.Writer
	Now     func() time.Time
}

func NewRunner(svc *services.ReceiptService) *Runner {
	return &Runner{
		Service: svc,
		In:      os.Stdin,
		Out:     os.Stdout,
		Now:     time.Now,
	}
}

// Run executes one command. args is os.Args[1:]; --yes or -y anywhere skips
// confirmation prompts.
func (r *Runner) Run(ctx context.Context, args []string) error {
	args, yes := stripYes(args)
	if len(args) == 0 {
		return fmt.Errorf("%w\n%s", ErrUsage, usage)
	}

	switch args[0] {
	case "list", "ls":
		r.printList(r.Service.List())
		return nil

	case "add":
		return r.add(ctx, args[1:])

	case "next":
		fmt.Fprintln(r.Out, r.Service.NextReceiptNo())
		return nil

	case "summary", "sum":
		r.printSummary(r.Service.Summary())
		return nil

	case "dashboard", "dash":
		d, _ := r.Service.Dashboard()
		return r.printJSON(d)

	case "delete", "rm":
		if len(args) < 2 {
			return fmt.Errorf("%w: receiptctl delete <id>", ErrUsage)
		}
		rec, err := r.Service.Get(args[1])
		if err != nil {
			return err
		}
		prompt := fmt.Sprintf("Delete %s (%s, %s)?", rec.ReceiptNo, rec.Name, core.FormatINR(rec.TotalAmount))
		if !yes && !r.confirm(prompt) {
			return ErrAborted
		}
		if err := r.Service.Delete(ctx, rec.ID); err != nil {
			return err
		}
		fmt.Fprintf(r.Out, "Deleted %s.\n", rec.ReceiptNo)
		return nil

	case "backup":
		records := r.Service.List()
		data, err := backup.Export(records)
		if err != nil {
			return err
		}
		path := backup.Filename(r.Now())
		if len(args) > 1 {
			path = args[1]
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		fmt.Fprintf(r.Out, "Backed up %d receipts to %s.\n", len(records), path)
		return nil

	case "import":
		if len(args) < 2 {
			return fmt.Errorf("%w: receiptctl import <file>", ErrUsage)
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
		records, err := backup.Parse(data)
		if err != nil {
			return err
		}
		prompt := fmt.Sprintf("Replace %d receipts with %d from %s?", len(r.Service.List()), len(records), args[1])
		if !yes && !r.confirm(prompt) {
			return ErrAborted
		}
		if err := r.Service.Import(ctx, records); err != nil {
			return err
		}
		fmt.Fprintf(r.Out, "Imported %d receipts.\n", len(records))
		return nil

	case "wipe":
		prompt := fmt.Sprintf("Delete all %d receipts? This cannot be undone.", len(r.Service.List()))
		if !yes && !r.confirm(prompt) {
			return ErrAborted
		}
		if err := r.Service.Wipe(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.Out, "Ledger wiped.")
		return nil

	case "export-xlsx", "xlsx":
		path := export.Filename(r.Now())
		if len(args) > 1 {
			path = args[1]
		}
		records := r.Service.List()
		if err := export.SaveXLSX(path, records); err != nil {
			return err
		}
		fmt.Fprintf(r.Out, "Exported %d receipts to %s.\n", len(records), path)
		return nil

	case "schema":
		return r.printJSON(backup.Schema())

	case "help", "-h", "--help":
		fmt.Fprintln(r.Out, usage)
		return nil

	default:
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, args[0], usage)
	}
}

func (r *Runner) add(ctx context.Context, args []string) error {
	in := core.NewInput()
	var price, discount, advance, status string

	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(r.Out)
	fs.StringVar(&in.Date, "date", in.Date, "receipt date (YYYY-MM-DD)")
	fs.StringVar(&in.ReceiptNo, "no", "", "receipt number (default: next in sequence)")
	fs.StringVar(&in.Name, "name", "", "customer name")
	fs.StringVar(&in.ItemDescription, "item", "", "item description")
	fs.StringVar(&in.CustomerRequest, "request", "", "customer request")
	fs.IntVar(&in.Quantity, "qty", in.Quantity, "quantity")
	fs.StringVar(&price, "price", "0", "unit price in rupees")
	fs.StringVar(&discount, "discount", "0", "discount in rupees")
	fs.StringVar(&advance, "advance", "", "advance paid in rupees")
	fs.StringVar(&status, "status", string(in.Status), "status")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	var err error
	if in.Price, err = core.ParseMoney(price); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if in.Discount, err = core.ParseMoney(discount); err != nil {
		return fmt.Errorf("discount: %w", err)
	}
	if strings.TrimSpace(advance) != "" {
		adv, err := core.ParseMoney(advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		in.Advance = &adv
	}
	if in.Status, err = core.ParseStatus(status); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	rec, err := r.Service.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "Added %s for %s: %s (%s)\n", rec.ReceiptNo, rec.Name, core.FormatINR(rec.TotalAmount), rec.ID)
	return nil
}

// confirm asks a [y/N] question. Only y or yes proceeds.
func (r *Runner) confirm(prompt string) bool {
	fmt.Fprintf(r.Out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(r.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (r *Runner) printList(records []core.Receipt) {
	if len(records) == 0 {
		fmt.Fprintln(r.Out, "No receipts.")
		return
	}
	fmt.Fprintf(r.Out, "%-14s %-10s %-20s %-24s %4s %14s %-16s\n",
		"NO", "DATE", "NAME", "ITEM", "QTY", "TOTAL", "STATUS")
	fmt.Fprintln(r.Out, strings.Repeat("-", 108))
	for _, rec := range records {
		fmt.Fprintf(r.Out, "%-14s %-10s %-20s %-24s %4d %14s %-16s\n",
			truncate(rec.ReceiptNo, 14),
			rec.Date,
			truncate(rec.Name, 20),
			truncate(rec.ItemDescription, 24),
			rec.Quantity,
			core.FormatINR(rec.TotalAmount),
			rec.Status)
	}
}

func (r *Runner) printSummary(s core.FinancialSummary) {
	fmt.Fprintln(r.Out, strings.Repeat("=", 40))
	fmt.Fprintf(r.Out, "  %-22s %15s\n", "Total revenue", core.FormatINR(s.TotalRevenue))
	fmt.Fprintf(r.Out, "  %-22s %15s\n", "Total discount", core.FormatINR(s.TotalDiscount))
	fmt.Fprintf(r.Out, "  %-22s %15s\n", "Cancelled value", core.FormatINR(s.TotalCancelled))
	fmt.Fprintf(r.Out, "  %-22s %15d\n", "Active receipts", s.ActiveReceiptCount)
	fmt.Fprintf(r.Out, "  %-22s %15d\n", "Cancelled receipts", s.CancelledReceiptCount)
	fmt.Fprintln(r.Out, strings.Repeat("=", 40))
}

func (r *Runner) printJSON(v any) error {
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stripYes(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	yes := false
	for _, a := range args {
		if a == "--yes" || a == "-y" {
			yes = true
			continue
		}
		out = append(out, a)
	}
	return out, yes
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
