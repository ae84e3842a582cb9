package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectionMonths is the length of the projection window: the current
// month plus the next three.
const ProjectionMonths = 4

// TrendMonths is the length of the historical trend window: the current
// month plus the eleven before it.
const TrendMonths = 12

type (
	// MonthKey identifies a calendar month as "YYYY-MM".
	MonthKey string

	// Contribution is one monetary effect of a transaction landing in a
	// given month. Amount is always positive; Kind decides which bucket
	// it lands in.
	Contribution struct {
		Month  MonthKey
		Amount decimal.Decimal
		Kind   Kind
	}

	// Window is a fixed span of consecutive calendar months.
	Window struct {
		start  time.Time // first day of the first month
		months int
	}

	// MonthFlow is one bucket of the projected series.
	MonthFlow struct {
		Month   MonthKey
		Income  decimal.Decimal
		Expense decimal.Decimal
		Balance decimal.Decimal
	}
)

// MonthKeyOf returns the month key of a point in time.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// NewWindow builds a window of n months starting at the month of today.
func NewWindow(today time.Time, n int) Window {
	y, m, _ := today.Date()
	return Window{
		start:  time.Date(y, m, 1, 0, 0, 0, 0, time.UTC),
		months: n,
	}
}

// Keys returns the ordered month keys covered by the window.
func (w Window) Keys() []MonthKey {
	keys := make([]MonthKey, w.months)
	for i := 0; i < w.months; i++ {
		keys[i] = MonthKeyOf(w.start.AddDate(0, i, 0))
	}
	return keys
}

// Contains reports whether the month key falls inside the window.
func (w Window) Contains(k MonthKey) bool {
	for i := 0; i < w.months; i++ {
		if MonthKeyOf(w.start.AddDate(0, i, 0)) == k {
			return true
		}
	}
	return false
}

// addMonths shifts a date by k months, clamping the day to the end of the
// target month (Jan 31 + 1 month = Feb 28/29, not Mar 2).
func addMonths(t time.Time, k int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, time.Month(int(m)+k), 1, 0, 0, 0, 0, t.Location())
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// Expand turns one transaction into the contributions it makes to future
// cash flow. It is a pure function of (t, today, w): no side effects.
//
// The first contribution is always the full amount in the month of the
// transaction's own date. Income with a parseable "Nx" receipt plan adds
// amount/N per installment date strictly after today; a recurring expense
// adds the full amount at date+k months for k=1..count-1, again only for
// dates strictly after today. Contributions landing outside the window
// are dropped, not clamped. Malformed plans and counts degrade to the
// direct contribution alone.
func Expand(t Transaction, today time.Time, w Window) []Contribution {
	var out []Contribution
	add := func(when time.Time, amount decimal.Decimal) {
		key := MonthKeyOf(when)
		if w.Contains(key) {
			out = append(out, Contribution{Month: key, Amount: amount, Kind: t.Kind})
		}
	}

	add(t.Date.Time, t.Amount)

	switch t.Kind {
	case KindIncome:
		n := PlanInstallments(t.ReceiptPlan)
		if n > 1 && len(t.InstallmentDates) > 0 {
			per := t.Amount.DivRound(decimal.NewFromInt(int64(len(t.InstallmentDates))), 2)
			for _, d := range t.InstallmentDates {
				if d.After(today) {
					add(d.Time, per)
				}
			}
		}
	case KindExpense:
		if t.Recurring && t.RecurrenceCount > 1 {
			for k := 1; k < int(t.RecurrenceCount); k++ {
				occurrence := addMonths(t.Date.Time, k)
				if occurrence.After(today) {
					add(occurrence, t.Amount)
				}
			}
		}
	}

	return out
}

// Project folds a set of transactions into the per-month cash-flow series
// for the window. Each bucket starts at zero; every expanded contribution
// is added to the income or expense side of its month, and the balance is
// income minus expense. The direct month-of-date contribution is the
// expander's first element, so it is counted exactly once. The result
// depends only on the input set, today, and the window; input order is
// irrelevant.
func Project(txs []Transaction, today time.Time, w Window) []MonthFlow {
	income := make(map[MonthKey]decimal.Decimal, w.months)
	expense := make(map[MonthKey]decimal.Decimal, w.months)

	for _, t := range txs {
		for _, c := range Expand(t, today, w) {
			switch c.Kind {
			case KindIncome:
				income[c.Month] = income[c.Month].Add(c.Amount)
			case KindExpense:
				expense[c.Month] = expense[c.Month].Add(c.Amount)
			}
		}
	}

	return fold(income, expense, w.Keys())
}

// Trend folds transactions into the per-month actuals of the trailing
// twelve months ending at the month of today. Unlike Project it buckets
// each transaction by its own date only: recorded history, no expansion.
func Trend(txs []Transaction, today time.Time) []MonthFlow {
	w := NewWindow(addMonths(today, -(TrendMonths-1)), TrendMonths)

	income := make(map[MonthKey]decimal.Decimal, w.months)
	expense := make(map[MonthKey]decimal.Decimal, w.months)

	for _, t := range txs {
		key := MonthKeyOf(t.Date.Time)
		if !w.Contains(key) {
			continue
		}
		switch t.Kind {
		case KindIncome:
			income[key] = income[key].Add(t.Amount)
		case KindExpense:
			expense[key] = expense[key].Add(t.Amount)
		}
	}

	return fold(income, expense, w.Keys())
}

func fold(income, expense map[MonthKey]decimal.Decimal, keys []MonthKey) []MonthFlow {
	series := make([]MonthFlow, len(keys))
	for i, k := range keys {
		in, ex := income[k], expense[k]
		series[i] = MonthFlow{
			Month:   k,
			Income:  in,
			Expense: ex,
			Balance: in.Sub(ex),
		}
	}
	return series
}
