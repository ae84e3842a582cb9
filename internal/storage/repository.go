// Package storage owns the SQLite record store: users, transactions,
// and installment schedules, all scoped by owner.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound covers both a missing row and a row belonging to a
	// different owner; callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")

	ErrUserExists = errors.New("user already exists")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction validates and inserts one row, plus its installment
// schedule when present, in a single database transaction.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	id, err := q.CreateTransaction(ctx, rowParams(t))
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	for i, d := range t.InstallmentDates {
		if err := q.InsertInstallmentDate(ctx, id, i, d.String()); err != nil {
			return 0, fmt.Errorf("insert installment date: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"owner", t.Owner,
		"kind", t.Kind,
		"amount", t.Amount.String(),
		"date", t.Date.String())

	return id, nil
}

// ListTransactions returns all of the owner's rows, newest date first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	installments, err := r.queries.ListInstallmentDatesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list installment dates: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := fromRow(row, installments[row.ID])
		if err != nil {
			// A single bad row must not take the whole listing down.
			slog.WarnContext(ctx, "Skipping malformed transaction row",
				"id", row.ID, "owner", owner, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTransaction fetches one row by (id, owner).
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64, owner string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	dates, err := r.queries.ListInstallmentDates(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list installment dates: %w", err)
	}
	return fromRow(row, dates)
}

// UpdateTransaction applies only the supplied fields to the row owned by
// owner. Returns false without error when no such row exists; a row
// belonging to someone else is never touched.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, owner string, patch core.TransactionPatch) (bool, error) {
	current, err := r.GetTransaction(ctx, id, owner)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	merged := patch.Apply(current)
	if err := merged.Validate(); err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	affected, err := q.UpdateTransaction(ctx, id, owner, rowParams(merged))
	if err != nil {
		return false, fmt.Errorf("update transaction: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if patch.InstallmentDates != nil || patch.ReceiptPlan != nil {
		if err := q.DeleteInstallmentDates(ctx, id); err != nil {
			return false, fmt.Errorf("clear installment dates: %w", err)
		}
		for i, d := range merged.InstallmentDates {
			if err := q.InsertInstallmentDate(ctx, id, i, d.String()); err != nil {
				return false, fmt.Errorf("insert installment date: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "owner", owner)
	return true, nil
}

// DeleteTransaction removes the row if owned by owner; false otherwise.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64, owner string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)

	// Child rows first: the foreign key cascade depends on pragma state,
	// so delete explicitly. Rolled back if the parent turns out not to
	// belong to this owner.
	if err := q.DeleteInstallmentDates(ctx, id); err != nil {
		return false, fmt.Errorf("delete installment dates: %w", err)
	}
	affected, err := q.DeleteTransaction(ctx, id, owner)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner", owner)
	return true, nil
}

// SumByKind totals the owner's amounts for one kind, optionally filtered
// by expense status. Returns zero, never null, when nothing matches.
func (r *SQLiteRepository) SumByKind(ctx context.Context, owner string, kind core.Kind, status *core.Status) (decimal.Decimal, error) {
	var (
		total float64
		err   error
	)
	if status != nil {
		total, err = r.queries.SumByKindStatus(ctx, owner, string(kind), string(*status))
	} else {
		total, err = r.queries.SumByKind(ctx, owner, string(kind))
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum by kind: %w", err)
	}
	// SQLite sums decimal text as float; amounts carry two decimal
	// places, so rounding restores the exact total.
	return decimal.NewFromFloat(total).Round(2), nil
}

func (r *SQLiteRepository) PaidExpensesByCategory(ctx context.Context, owner string) ([]core.CategoryAmount, error) {
	sums, err := r.queries.SumPaidExpensesByCategory(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("paid expenses by category: %w", err)
	}
	return toCategoryAmounts(sums), nil
}

func (r *SQLiteRepository) IncomeByResponsible(ctx context.Context, owner string) ([]core.CategoryAmount, error) {
	sums, err := r.queries.SumIncomeByResponsible(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("income by responsible: %w", err)
	}
	return toCategoryAmounts(sums), nil
}

func (r *SQLiteRepository) IncomeByBank(ctx context.Context, owner string) ([]core.CategoryAmount, error) {
	sums, err := r.queries.SumIncomeByBank(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("income by bank: %w", err)
	}
	return toCategoryAmounts(sums), nil
}

// CreateUser stores a username with an already-hashed password.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) error {
	err := r.queries.CreateUser(ctx, username, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "username", username)
	return nil
}

// GetUserPasswordHash returns the stored hash, or ErrNotFound.
func (r *SQLiteRepository) GetUserPasswordHash(ctx context.Context, username string) (string, error) {
	hash, err := r.queries.GetUserPasswordHash(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	return hash, nil
}

func toCategoryAmounts(sums []groupedSum) []core.CategoryAmount {
	out := make([]core.CategoryAmount, len(sums))
	for i, s := range sums {
		out[i] = core.CategoryAmount{
			Name:  s.Name,
			Total: decimal.NewFromFloat(s.Total).Round(2),
		}
	}
	return out
}

func rowParams(t core.Transaction) createTransactionParams {
	return createTransactionParams{
		Owner:            t.Owner,
		Date:             t.Date.String(),
		Description:      t.Description,
		Amount:           t.Amount.String(),
		Kind:             string(t.Kind),
		Category:         nullString(t.Category),
		ResponsibleParty: nullString(t.ResponsibleParty),
		BankAccount:      nullString(t.BankAccount),
		ReceiptPlan:      nullString(t.ReceiptPlan),
		Recurring:        t.Recurring,
		RecurrenceCount:  nullInt64(t.RecurrenceCount),
		Status:           nullString(string(t.Status)),
	}
}

func fromRow(r transactionRow, installmentDates []string) (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %d: %w", r.ID, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %d: parse amount %q: %w", r.ID, r.Amount, err)
	}

	t := core.Transaction{
		ID:               r.ID,
		Owner:            r.Owner,
		Date:             date,
		Description:      r.Description,
		Amount:           amount,
		Kind:             core.Kind(r.Kind),
		Category:         r.Category.String,
		ResponsibleParty: r.ResponsibleParty.String,
		BankAccount:      r.BankAccount.String,
		ReceiptPlan:      r.ReceiptPlan.String,
		Recurring:        r.Recurring,
		RecurrenceCount:  r.RecurrenceCount.Int64,
		Status:           core.Status(r.Status.String),
	}

	for _, s := range installmentDates {
		d, err := core.ParseDate(s)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("row %d: installment date %q: %w", r.ID, s, err)
		}
		t.InstallmentDates = append(t.InstallmentDates, d)
	}

	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
