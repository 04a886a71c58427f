package core

// FinancialSummary is the dashboard headline computed from the whole ledger.
// Cancelled receipts feed only the Cancelled fields.
type FinancialSummary struct {
	TotalRevenue          Money `json:"totalRevenue"`
	TotalDiscount         Money `json:"totalDiscount"`
	TotalCancelled        Money `json:"totalCancelled"`
	ActiveReceiptCount    int   `json:"activeReceiptCount"`
	CancelledReceiptCount int   `json:"cancelledReceiptCount"`
}

// Summarize folds records into a FinancialSummary. Every status other than
// Cancelled counts as active.
func Summarize(records []Receipt) FinancialSummary {
	var s FinancialSummary
	for _, r := range records {
		if r.Status.Cancelled() {
			s.TotalCancelled = s.TotalCancelled.Add(r.TotalAmount)
			s.CancelledReceiptCount++
			continue
		}
		s.TotalRevenue = s.TotalRevenue.Add(r.TotalAmount)
		s.TotalDiscount = s.TotalDiscount.Add(r.Discount)
		s.ActiveReceiptCount++
	}
	return s
}
