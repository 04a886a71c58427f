package core

// Amounts holds the values computed from a receipt's editable fields.
type Amounts struct {
	Amount      Money
	TotalAmount Money
	Balance     *Money
}

// DeriveAmounts computes amount = quantity*price, total = amount-discount
// and, when an advance is present, balance = total-advance. Nothing is
// clamped: a discount larger than the amount yields a negative total.
func DeriveAmounts(quantity int, price, discount Money, advance *Money) Amounts {
	amount := price.Mul(int64(quantity))
	out := Amounts{
		Amount:      amount,
		TotalAmount: amount.Sub(discount),
	}
	if advance != nil {
		bal := out.TotalAmount.Sub(*advance)
		out.Balance = &bal
	}
	return out
}

// Derive recomputes the derived fields of r in place.
func (r *Receipt) Derive() {
	a := DeriveAmounts(r.Quantity, r.Price, r.Discount, r.Advance)
	r.Amount = a.Amount
	r.TotalAmount = a.TotalAmount
	r.Balance = a.Balance
}
