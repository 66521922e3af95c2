package core

// Statement is a list of transactions together with the sum of their amounts.
type Statement struct {
	Transactions []Transaction
	Total        Money
}

// Summarize totals txs in order. The slice is kept as given. A running
// total that leaves the int64 range yields ErrAmountOverflow.
func Summarize(txs []Transaction) (Statement, error) {
	var total Money
	for _, t := range txs {
		var err error
		if total, err = total.Add(t.Amount); err != nil {
			return Statement{}, err
		}
	}
	return Statement{Transactions: txs, Total: total}, nil
}

// Filter returns the transactions inside r, in their original order.
func Filter(txs []Transaction, r AmountRange) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if r.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}
