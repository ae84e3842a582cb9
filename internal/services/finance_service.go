// Package services orchestrates the record store and the projection
// logic behind the API handlers.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// RecordStore is the storage contract the service depends on.
type RecordStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, owner string, patch core.TransactionPatch) (bool, error)
	DeleteTransaction(ctx context.Context, id int64, owner string) (bool, error)
	SumByKind(ctx context.Context, owner string, kind core.Kind, status *core.Status) (decimal.Decimal, error)
	PaidExpensesByCategory(ctx context.Context, owner string) ([]core.CategoryAmount, error)
	IncomeByResponsible(ctx context.Context, owner string) ([]core.CategoryAmount, error)
	IncomeByBank(ctx context.Context, owner string) ([]core.CategoryAmount, error)
}

// ListFilter narrows a transaction listing. Zero value means no filter.
type ListFilter struct {
	Search string       // matches description or category, case-insensitive
	Kind   *core.Kind   //
	Status *core.Status // applies to expense rows only; income always passes
	From   *core.Date
	To     *core.Date
}

// FinanceService exposes the owner-scoped operations the API serves.
type FinanceService struct {
	store RecordStore
	now   func() time.Time
}

func NewFinanceService(store RecordStore) *FinanceService {
	return &FinanceService{store: store, now: time.Now}
}

func (s *FinanceService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	return s.store.CreateTransaction(ctx, t)
}

func (s *FinanceService) Update(ctx context.Context, id int64, owner string, patch core.TransactionPatch) (bool, error) {
	return s.store.UpdateTransaction(ctx, id, owner, patch)
}

func (s *FinanceService) Delete(ctx context.Context, id int64, owner string) (bool, error) {
	return s.store.DeleteTransaction(ctx, id, owner)
}

// List returns the owner's transactions, newest first, narrowed by the
// filter.
func (s *FinanceService) List(ctx context.Context, owner string, f ListFilter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if matches(t, f) {
			out = append(out, t)
		}
	}
	return out, nil
}

func matches(t core.Transaction, f ListFilter) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Category), q) {
			return false
		}
	}
	if f.Kind != nil && t.Kind != *f.Kind {
		return false
	}
	if f.Status != nil && t.Kind == core.KindExpense && t.Status != *f.Status {
		return false
	}
	if f.From != nil && t.Date.Before(f.From.Time) {
		return false
	}
	if f.To != nil && t.Date.After(f.To.Time) {
		return false
	}
	return true
}

// Summary computes the dashboard header: realized balance counts only
// paid expenses, projected balance also subtracts pending ones.
func (s *FinanceService) Summary(ctx context.Context, owner string) (core.Summary, error) {
	income, err := s.store.SumByKind(ctx, owner, core.KindIncome, nil)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum income: %w", err)
	}

	paid := core.StatusPaid
	paidExpenses, err := s.store.SumByKind(ctx, owner, core.KindExpense, &paid)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum paid expenses: %w", err)
	}

	pending := core.StatusPending
	pendingExpenses, err := s.store.SumByKind(ctx, owner, core.KindExpense, &pending)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum pending expenses: %w", err)
	}

	return core.Summary{
		TotalIncome:      income,
		PaidExpenses:     paidExpenses,
		PendingExpenses:  pendingExpenses,
		RealBalance:      income.Sub(paidExpenses),
		ProjectedBalance: income.Sub(paidExpenses.Add(pendingExpenses)),
	}, nil
}

// Breakdowns groups the owner's money along the dashboard's chart axes.
func (s *FinanceService) Breakdowns(ctx context.Context, owner string) (core.Breakdowns, error) {
	byCategory, err := s.store.PaidExpensesByCategory(ctx, owner)
	if err != nil {
		return core.Breakdowns{}, err
	}
	byResponsible, err := s.store.IncomeByResponsible(ctx, owner)
	if err != nil {
		return core.Breakdowns{}, err
	}
	byBank, err := s.store.IncomeByBank(ctx, owner)
	if err != nil {
		return core.Breakdowns{}, err
	}

	return core.Breakdowns{
		ExpensesByCategory:  byCategory,
		IncomeByResponsible: byResponsible,
		IncomeByBank:        byBank,
	}, nil
}

// Projection builds the cash-flow series for the current month plus the
// next three, from the owner's full transaction set.
func (s *FinanceService) Projection(ctx context.Context, owner string) ([]core.MonthFlow, error) {
	txs, err := s.store.ListTransactions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	today := s.now()
	window := core.NewWindow(today, core.ProjectionMonths)
	return core.Project(txs, today, window), nil
}

// Trend builds the historical monthly series for the trailing twelve
// months, bucketing each transaction by its recorded date.
func (s *FinanceService) Trend(ctx context.Context, owner string) ([]core.MonthFlow, error) {
	txs, err := s.store.ListTransactions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.Trend(txs, s.now()), nil
}
