package core

import "testing"

func TestDeriveAmounts(t *testing.T) {
	adv := Rupees(100)
	cases := []struct {
		name     string
		qty      int
		price    Money
		discount Money
		advance  *Money
		amount   int64
		total    int64
		balance  *int64
	}{
		{"simple", 2, Rupees(150), Rupees(20), nil, 30000, 28000, nil},
		{"zero price", 5, Money{}, Money{}, nil, 0, 0, nil},
		{"discount exceeds amount", 1, Rupees(100), Rupees(150), nil, 10000, -5000, nil},
		{"fractional price", 3, Money{Cents: 3333}, Money{Cents: 1}, nil, 9999, 9998, nil},
		{"with advance", 2, Rupees(150), Rupees(20), &adv, 30000, 28000, ptr(int64(18000))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveAmounts(tc.qty, tc.price, tc.discount, tc.advance)
			if got.Amount.Cents != tc.amount || got.TotalAmount.Cents != tc.total {
				t.Fatalf("expected amount=%d total=%d, got %+v", tc.amount, tc.total, got)
			}
			switch {
			case tc.balance == nil && got.Balance != nil:
				t.Fatalf("expected no balance, got %d", got.Balance.Cents)
			case tc.balance != nil && (got.Balance == nil || got.Balance.Cents != *tc.balance):
				t.Fatalf("expected balance %d, got %v", *tc.balance, got.Balance)
			}
		})
	}
}

func TestDeriveOverwritesStaleFields(t *testing.T) {
	r := Receipt{Quantity: 2, Price: Rupees(150), Discount: Rupees(20), Amount: Rupees(1), TotalAmount: Rupees(1)}
	r.Derive()
	if r.Amount != Rupees(300) || r.TotalAmount != Rupees(280) {
		t.Fatalf("stale derived fields survived: %+v", r)
	}
}

func ptr[T any](v T) *T { return &v }
