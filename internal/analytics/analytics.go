// Package analytics computes derived values over a transaction
// snapshot. Every function is a pure, total function of its inputs;
// callers recompute on each request instead of caching, which is fine
// for a single user's personal transaction list.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"finova/internal/core"
)

// CategoryAmount is one row of the spending-by-category breakdown.
type CategoryAmount struct {
	Category core.Category `json:"category"`
	Cents    int64         `json:"cents"`
}

// MonthBucket is one column of the six-month income/expense series.
type MonthBucket struct {
	Label   string `json:"label"` // 3-letter month abbreviation
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

// Summary bundles the dashboard stat values computed from one snapshot.
type Summary struct {
	TotalIncome  int64           `json:"total_income"`
	TotalExpense int64           `json:"total_expense"`
	Balance      int64           `json:"balance"`
	IncomeCount  int             `json:"income_count"`
	ExpenseCount int             `json:"expense_count"`
	Count        int             `json:"count"`
	SavingsRate  int             `json:"savings_rate"`
	AvgExpense   int64           `json:"avg_expense"`
	IncomeShare  int             `json:"income_share"`
	TopCategory  *CategoryAmount `json:"top_category,omitempty"`
}

// round reproduces the half-towards-positive-infinity rounding the
// dashboard math was written against. math.Round differs on negative
// halves (-50.5 must round to -50, not -51).
func round(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// TotalByKind sums amounts of the given kind.
func TotalByKind(list []core.Transaction, kind core.Kind) int64 {
	var sum int64
	for _, t := range list {
		if t.Kind == kind {
			sum += t.Amount.Cents
		}
	}
	return sum
}

// CountByKind counts transactions of the given kind.
func CountByKind(list []core.Transaction, kind core.Kind) int {
	n := 0
	for _, t := range list {
		if t.Kind == kind {
			n++
		}
	}
	return n
}

// Balance is total income minus total expense.
func Balance(list []core.Transaction) int64 {
	return TotalByKind(list, core.Income) - TotalByKind(list, core.Expense)
}

// CategorySpend returns expense sums per category, zero-sum categories
// removed, sorted non-increasing. The sort is stable over the fixed
// category enumeration, so ties keep enumeration order.
func CategorySpend(list []core.Transaction) []CategoryAmount {
	spend := make([]CategoryAmount, 0, len(core.Categories))
	for _, cat := range core.Categories {
		var sum int64
		for _, t := range list {
			if t.Kind == core.Expense && t.Category == cat {
				sum += t.Amount.Cents
			}
		}
		if sum > 0 {
			spend = append(spend, CategoryAmount{Category: cat, Cents: sum})
		}
	}
	sort.SliceStable(spend, func(i, j int) bool {
		return spend[i].Cents > spend[j].Cents
	})
	return spend
}

// MaxSpend returns the largest category sum with a floor of 1, so bar
// widths computed as amount/max never divide by zero on empty data.
func MaxSpend(spend []CategoryAmount) int64 {
	var max int64 = 1
	for _, c := range spend {
		if c.Cents > max {
			max = c.Cents
		}
	}
	return max
}

// TopCategory returns the highest-spend category, or false when the
// snapshot holds no expenses.
func TopCategory(list []core.Transaction) (CategoryAmount, bool) {
	spend := CategorySpend(list)
	if len(spend) == 0 {
		return CategoryAmount{}, false
	}
	return spend[0], true
}

// MonthlySeries buckets income and expense sums into the six calendar
// months ending at now's month, oldest first. A transaction lands in a
// bucket when its date string starts with the bucket's "YYYY-MM" key;
// months without data keep zero values.
func MonthlySeries(list []core.Transaction, now time.Time) []MonthBucket {
	series := make([]MonthBucket, 0, 6)
	for i := 0; i < 6; i++ {
		m := time.Date(now.Year(), now.Month()-time.Month(5-i), 1, 0, 0, 0, 0, time.UTC)
		key := m.Format("2006-01")
		bucket := MonthBucket{Label: m.Format("Jan")}
		for _, t := range list {
			if !strings.HasPrefix(t.Date, key) {
				continue
			}
			switch t.Kind {
			case core.Income:
				bucket.Income += t.Amount.Cents
			case core.Expense:
				bucket.Expense += t.Amount.Cents
			}
		}
		series = append(series, bucket)
	}
	return series
}

// MaxMonthly returns the largest value across all buckets, floor 1.
func MaxMonthly(series []MonthBucket) int64 {
	var max int64 = 1
	for _, b := range series {
		if b.Income > max {
			max = b.Income
		}
		if b.Expense > max {
			max = b.Expense
		}
	}
	return max
}

// SavingsRate is the rounded percentage of income retained after
// expenses. Deliberately unclamped: it goes negative when expenses
// outstrip income. Zero income yields 0.
func SavingsRate(list []core.Transaction) int {
	income := TotalByKind(list, core.Income)
	if income <= 0 {
		return 0
	}
	expense := TotalByKind(list, core.Expense)
	return int(round(float64(income-expense) / float64(income) * 100))
}

// AvgExpense is the rounded mean expense amount, 0 with no expenses.
func AvgExpense(list []core.Transaction) int64 {
	count := CountByKind(list, core.Expense)
	if count == 0 {
		return 0
	}
	return round(float64(TotalByKind(list, core.Expense)) / float64(count))
}

// ExpenseShare is a category's rounded percentage of total expense.
func ExpenseShare(categoryCents, totalExpense int64) int {
	if totalExpense <= 0 {
		return 0
	}
	return int(round(float64(categoryCents) / float64(totalExpense) * 100))
}

// IncomeShare is income's rounded percentage of all traffic, with the
// denominator floored to 1 so an empty snapshot reads 0%.
func IncomeShare(list []core.Transaction) int {
	income := TotalByKind(list, core.Income)
	total := income + TotalByKind(list, core.Expense)
	if total <= 0 {
		total = 1
	}
	return int(round(float64(income) / float64(total) * 100))
}

// Recent returns the first n transactions of the snapshot, which the
// store already orders by creation time descending.
func Recent(list []core.Transaction, n int) []core.Transaction {
	if n > len(list) {
		n = len(list)
	}
	return list[:n]
}

// Summarize computes the composite dashboard summary in one pass over
// the helpers above.
func Summarize(list []core.Transaction) Summary {
	s := Summary{
		TotalIncome:  TotalByKind(list, core.Income),
		TotalExpense: TotalByKind(list, core.Expense),
		IncomeCount:  CountByKind(list, core.Income),
		ExpenseCount: CountByKind(list, core.Expense),
		Count:        len(list),
		SavingsRate:  SavingsRate(list),
		AvgExpense:   AvgExpense(list),
		IncomeShare:  IncomeShare(list),
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	if top, ok := TopCategory(list); ok {
		s.TopCategory = &top
	}
	return s
}
