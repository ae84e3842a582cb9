package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

type fakeStore struct {
	txs    []core.Transaction
	nextID int64
}

func (f *fakeStore) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	f.nextID++
	t.ID = f.nextID
	f.txs = append(f.txs, t)
	return t.ID, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, owner string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txs {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, id int64, owner string, patch core.TransactionPatch) (bool, error) {
	for i, t := range f.txs {
		if t.ID == id && t.Owner == owner {
			f.txs[i] = patch.Apply(t)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id int64, owner string) (bool, error) {
	for i, t := range f.txs {
		if t.ID == id && t.Owner == owner {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SumByKind(_ context.Context, owner string, kind core.Kind, status *core.Status) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range f.txs {
		if t.Owner != owner || t.Kind != kind {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (f *fakeStore) PaidExpensesByCategory(context.Context, string) ([]core.CategoryAmount, error) {
	return nil, nil
}
func (f *fakeStore) IncomeByResponsible(context.Context, string) ([]core.CategoryAmount, error) {
	return nil, nil
}
func (f *fakeStore) IncomeByBank(context.Context, string) ([]core.CategoryAmount, error) {
	return nil, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seededService(t *testing.T, today time.Time) (*FinanceService, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	svc := NewFinanceService(store)
	svc.now = func() time.Time { return today }
	return svc, store
}

func TestSummary(t *testing.T) {
	svc, store := seededService(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		{Owner: "alice", Date: core.NewDate(2024, 5, 1), Description: "Salário", Amount: dec("3000"), Kind: core.KindIncome},
		{Owner: "alice", Date: core.NewDate(2024, 5, 3), Description: "Mercado", Amount: dec("400"), Kind: core.KindExpense, Status: core.StatusPaid},
		{Owner: "alice", Date: core.NewDate(2024, 5, 5), Description: "Aluguel", Amount: dec("900"), Kind: core.KindExpense, Status: core.StatusPending},
	} {
		if _, err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := svc.Summary(ctx, "alice")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if !got.TotalIncome.Equal(dec("3000")) ||
		!got.PaidExpenses.Equal(dec("400")) ||
		!got.PendingExpenses.Equal(dec("900")) {
		t.Errorf("Summary totals = %+v", got)
	}
	if !got.RealBalance.Equal(dec("2600")) {
		t.Errorf("RealBalance = %s, want 2600", got.RealBalance)
	}
	if !got.ProjectedBalance.Equal(dec("1700")) {
		t.Errorf("ProjectedBalance = %s, want 1700", got.ProjectedBalance)
	}
}

func TestProjectionScenario(t *testing.T) {
	today := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	svc, store := seededService(t, today)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		{Owner: "alice", Date: core.NewDate(2024, 5, 2), Description: "Salário", Amount: dec("1000"), Kind: core.KindIncome, ReceiptPlan: core.PlanSingle},
		{Owner: "alice", Date: core.NewDate(2024, 5, 10), Description: "Mercado", Amount: dec("300"), Kind: core.KindExpense, Status: core.StatusPaid},
	} {
		if _, err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	series, err := svc.Projection(ctx, "alice")
	if err != nil {
		t.Fatalf("Projection: %v", err)
	}
	if len(series) != core.ProjectionMonths {
		t.Fatalf("Projection returned %d buckets, want %d", len(series), core.ProjectionMonths)
	}
	if !series[0].Income.Equal(dec("1000")) || !series[0].Expense.Equal(dec("300")) || !series[0].Balance.Equal(dec("700")) {
		t.Errorf("current bucket = %+v, want {1000 300 700}", series[0])
	}
	for _, b := range series[1:] {
		if !b.Income.IsZero() || !b.Expense.IsZero() {
			t.Errorf("bucket %s not empty: %+v", b.Month, b)
		}
	}
}

func TestTrendScenario(t *testing.T) {
	today := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	svc, store := seededService(t, today)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		{Owner: "alice", Date: core.NewDate(2024, 5, 2), Description: "Salário", Amount: dec("1000"), Kind: core.KindIncome, ReceiptPlan: core.PlanSingle},
		{Owner: "alice", Date: core.NewDate(2024, 1, 10), Description: "Mercado", Amount: dec("300"), Kind: core.KindExpense, Status: core.StatusPaid},
		// Older than twelve months: not part of the trend.
		{Owner: "alice", Date: core.NewDate(2023, 4, 1), Description: "Antigo", Amount: dec("500"), Kind: core.KindExpense, Status: core.StatusPaid},
	} {
		if _, err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	series, err := svc.Trend(ctx, "alice")
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(series) != core.TrendMonths {
		t.Fatalf("Trend returned %d buckets, want %d", len(series), core.TrendMonths)
	}
	if series[0].Month != "2023-06" || series[len(series)-1].Month != "2024-05" {
		t.Fatalf("window = %s..%s, want 2023-06..2024-05", series[0].Month, series[len(series)-1].Month)
	}

	var totalExpense decimal.Decimal
	for _, b := range series {
		totalExpense = totalExpense.Add(b.Expense)
	}
	if !totalExpense.Equal(dec("300")) {
		t.Errorf("total trend expense = %s, want 300", totalExpense)
	}
	if !series[len(series)-1].Income.Equal(dec("1000")) {
		t.Errorf("current month income = %s, want 1000", series[len(series)-1].Income)
	}
}

func TestListFilters(t *testing.T) {
	svc, store := seededService(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		{Owner: "alice", Date: core.NewDate(2024, 5, 1), Description: "Salário mensal", Amount: dec("3000"), Kind: core.KindIncome, Category: "Salário"},
		{Owner: "alice", Date: core.NewDate(2024, 5, 3), Description: "Supermercado", Amount: dec("400"), Kind: core.KindExpense, Category: "Alimentação", Status: core.StatusPaid},
		{Owner: "alice", Date: core.NewDate(2024, 4, 5), Description: "Aluguel", Amount: dec("900"), Kind: core.KindExpense, Category: "Moradia", Status: core.StatusPending},
	} {
		if _, err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	expense := core.KindExpense
	paid := core.StatusPaid
	from := core.NewDate(2024, 5, 1)

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"no filter", ListFilter{}, []string{"Salário mensal", "Supermercado", "Aluguel"}},
		{"search description", ListFilter{Search: "aluguel"}, []string{"Aluguel"}},
		{"search category", ListFilter{Search: "alimenta"}, []string{"Supermercado"}},
		{"kind", ListFilter{Kind: &expense}, []string{"Supermercado", "Aluguel"}},
		{"status filters expenses only", ListFilter{Status: &paid}, []string{"Salário mensal", "Supermercado"}},
		{"date range", ListFilter{From: &from}, []string{"Salário mensal", "Supermercado"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, "alice", tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List returned %d rows, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Description != w {
					t.Errorf("row %d = %s, want %s", i, got[i].Description, w)
				}
			}
		})
	}
}
