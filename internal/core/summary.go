package core

import "github.com/shopspring/decimal"

// Summary is the dashboard header: realized vs projected balances.
// RealBalance counts only paid expenses; ProjectedBalance also subtracts
// the pending ones.
type Summary struct {
	TotalIncome      decimal.Decimal
	PaidExpenses     decimal.Decimal
	PendingExpenses  decimal.Decimal
	RealBalance      decimal.Decimal
	ProjectedBalance decimal.Decimal
}

// CategoryAmount is a total aggregated under one label (spending
// category, responsible party, or bank account).
type CategoryAmount struct {
	Name  string
	Total decimal.Decimal
}

// Breakdowns groups the owner's money by the axes the dashboard charts:
// paid expenses per category, income per responsible party and per bank.
type Breakdowns struct {
	ExpensesByCategory  []CategoryAmount
	IncomeByResponsible []CategoryAmount
	IncomeByBank        []CategoryAmount
}
