package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Summary holds the aggregate figures for a store snapshot.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
}

// Summarize computes totals over a snapshot. Balance is income minus expense.
func Summarize(txs []Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case TypeIncome:
			income = income.Add(tx.Amount)
		case TypeExpense:
			expense = expense.Add(tx.Amount)
		}
	}
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}
}

// CategorySlice is one wedge of the per-category expense breakdown.
type CategorySlice struct {
	Category Category        `json:"category"`
	Color    string          `json:"color"`
	Total    decimal.Decimal `json:"total"`
}

// BreakdownByCategory groups expense-type records by category and sums their
// amounts, sorted descending by total. Income records never appear.
func BreakdownByCategory(txs []Transaction) []CategorySlice {
	totals := make(map[Category]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != TypeExpense {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}

	out := make([]CategorySlice, 0, len(totals))
	for cat, total := range totals {
		out = append(out, CategorySlice{
			Category: cat,
			Color:    CategoryColors[cat],
			Total:    total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out
}
