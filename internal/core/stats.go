package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// TrendWindow is the number of most recent dates kept by DailyTrend.
	TrendWindow = 7
	// DashboardTopItems is how many items the dashboard ranks.
	DashboardTopItems = 3
)

type (
	StatusShare struct {
		Status  Status  `json:"status"`
		Count   int     `json:"count"`
		Percent float64 `json:"percent"`
	}

	StatusRevenue struct {
		Status  Status  `json:"status"`
		Total   Money   `json:"total"`
		Percent float64 `json:"percent"`
	}

	DailyPoint struct {
		Date  string `json:"date"`
		Total Money  `json:"total"`
	}

	// Trend is the per-day revenue series. Sufficient is false when there
	// are fewer than two dates, which is too little to draw a trend line.
	Trend struct {
		Points     []DailyPoint `json:"points"`
		Sufficient bool         `json:"sufficient"`
	}

	ItemTotal struct {
		Description string `json:"description"`
		Total       Money  `json:"total"`
		Quantity    int    `json:"quantity"`
	}

	// Dashboard bundles every aggregate shown on the overview page.
	Dashboard struct {
		Summary            FinancialSummary `json:"summary"`
		AverageTransaction Money            `json:"averageTransaction"`
		StatusDistribution []StatusShare    `json:"statusDistribution"`
		RevenueByStatus    []StatusRevenue  `json:"revenueByStatus"`
		DailyTrend         Trend            `json:"dailyTrend"`
		TopItems           []ItemTotal      `json:"topItems"`
	}
)

// StatusDistribution counts records per status. Statuses appear in the
// order of Statuses and those with no records are omitted.
func StatusDistribution(records []Receipt) []StatusShare {
	counts := make(map[Status]int, len(Statuses))
	for _, r := range records {
		counts[r.Status]++
	}
	total := len(records)
	if total < 1 {
		total = 1
	}
	out := make([]StatusShare, 0, len(counts))
	for _, st := range Statuses {
		n := counts[st]
		if n == 0 {
			continue
		}
		out = append(out, StatusShare{
			Status:  st,
			Count:   n,
			Percent: float64(n) / float64(total) * 100,
		})
	}
	return out
}

// RevenueByStatus sums totalAmount per status. Percentages are taken over
// revenue plus cancelled value, floored at one rupee so an empty or zero
// ledger does not divide by zero.
func RevenueByStatus(records []Receipt) []StatusRevenue {
	sums := make(map[Status]Money, len(Statuses))
	for _, r := range records {
		sums[r.Status] = sums[r.Status].Add(r.TotalAmount)
	}
	s := Summarize(records)
	den := s.TotalRevenue.Add(s.TotalCancelled)
	if den.Cents < Rupees(1).Cents {
		den = Rupees(1)
	}
	out := make([]StatusRevenue, 0, len(sums))
	for _, st := range Statuses {
		sum, ok := sums[st]
		if !ok {
			continue
		}
		out = append(out, StatusRevenue{
			Status:  st,
			Total:   sum,
			Percent: float64(sum.Cents) / float64(den.Cents) * 100,
		})
	}
	return out
}

// DailyTrend sums non-cancelled totals per date, sorted ascending, keeping
// the last TrendWindow dates.
func DailyTrend(records []Receipt) Trend {
	byDate := make(map[string]Money)
	for _, r := range records {
		if r.Status.Cancelled() {
			continue
		}
		byDate[r.Date] = byDate[r.Date].Add(r.TotalAmount)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if len(dates) > TrendWindow {
		dates = dates[len(dates)-TrendWindow:]
	}
	points := make([]DailyPoint, 0, len(dates))
	for _, d := range dates {
		points = append(points, DailyPoint{Date: d, Total: byDate[d]})
	}
	return Trend{Points: points, Sufficient: len(points) >= 2}
}

// TopItems ranks non-cancelled item descriptions by summed total. Items are
// grouped by trimmed description; ties keep first-seen order.
func TopItems(records []Receipt, n int) []ItemTotal {
	index := make(map[string]int)
	var items []ItemTotal
	for _, r := range records {
		if r.Status.Cancelled() {
			continue
		}
		key := strings.TrimSpace(r.ItemDescription)
		i, ok := index[key]
		if !ok {
			i = len(items)
			index[key] = i
			items = append(items, ItemTotal{Description: key})
		}
		items[i].Total = items[i].Total.Add(r.TotalAmount)
		items[i].Quantity += r.Quantity
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Total.Cents > items[b].Total.Cents
	})
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	if items == nil {
		items = []ItemTotal{}
	}
	return items
}

// AverageTransaction is revenue per active receipt rounded half-up to a
// whole rupee.
func AverageTransaction(s FinancialSummary) Money {
	n := s.ActiveReceiptCount
	if n < 1 {
		n = 1
	}
	avg := s.TotalRevenue.Decimal().Div(decimal.NewFromInt(int64(n)))
	rounded := avg.Add(decimal.NewFromFloat(0.5)).Floor()
	return MoneyFromDecimal(rounded)
}

// BuildDashboard computes every dashboard aggregate from records.
func BuildDashboard(records []Receipt) Dashboard {
	s := Summarize(records)
	return Dashboard{
		Summary:            s,
		AverageTransaction: AverageTransaction(s),
		StatusDistribution: StatusDistribution(records),
		RevenueByStatus:    RevenueByStatus(records),
		DailyTrend:         DailyTrend(records),
		TopItems:           TopItems(records, DashboardTopItems),
	}
}
