package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same statements
// run inside and outside transactions.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// transactionRow mirrors the transactions table.
type transactionRow struct {
	ID               int64
	Owner            string
	Date             string
	Description      string
	Amount           string
	Kind             string
	Category         sql.NullString
	ResponsibleParty sql.NullString
	BankAccount      sql.NullString
	ReceiptPlan      sql.NullString
	Recurring        bool
	RecurrenceCount  sql.NullInt64
	Status           sql.NullString
}

type groupedSum struct {
	Name  string
	Total float64
}

const createTransaction = `
INSERT INTO transactions (
    owner, date, description, amount, kind, category,
    responsible_party, bank_account, receipt_plan,
    recurring, recurrence_count, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type createTransactionParams struct {
	Owner            string
	Date             string
	Description      string
	Amount           string
	Kind             string
	Category         sql.NullString
	ResponsibleParty sql.NullString
	BankAccount      sql.NullString
	ReceiptPlan      sql.NullString
	Recurring        bool
	RecurrenceCount  sql.NullInt64
	Status           sql.NullString
}

func (q *Queries) CreateTransaction(ctx context.Context, arg createTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		arg.Owner, arg.Date, arg.Description, arg.Amount, arg.Kind, arg.Category,
		arg.ResponsibleParty, arg.BankAccount, arg.ReceiptPlan,
		arg.Recurring, arg.RecurrenceCount, arg.Status,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getTransaction = `
SELECT id, owner, date, description, amount, kind, category,
       responsible_party, bank_account, receipt_plan,
       recurring, recurrence_count, status
FROM transactions
WHERE id = ? AND owner = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64, owner string) (transactionRow, error) {
	var r transactionRow
	err := q.db.QueryRowContext(ctx, getTransaction, id, owner).Scan(
		&r.ID, &r.Owner, &r.Date, &r.Description, &r.Amount, &r.Kind, &r.Category,
		&r.ResponsibleParty, &r.BankAccount, &r.ReceiptPlan,
		&r.Recurring, &r.RecurrenceCount, &r.Status,
	)
	return r, err
}

const listTransactions = `
SELECT id, owner, date, description, amount, kind, category,
       responsible_party, bank_account, receipt_plan,
       recurring, recurrence_count, status
FROM transactions
WHERE owner = ?
ORDER BY date DESC, id DESC
`

func (q *Queries) ListTransactions(ctx context.Context, owner string) ([]transactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transactionRow
	for rows.Next() {
		var r transactionRow
		if err := rows.Scan(
			&r.ID, &r.Owner, &r.Date, &r.Description, &r.Amount, &r.Kind, &r.Category,
			&r.ResponsibleParty, &r.BankAccount, &r.ReceiptPlan,
			&r.Recurring, &r.RecurrenceCount, &r.Status,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const updateTransaction = `
UPDATE transactions
SET date = ?, description = ?, amount = ?, category = ?,
    responsible_party = ?, bank_account = ?, receipt_plan = ?,
    recurring = ?, recurrence_count = ?, status = ?
WHERE id = ? AND owner = ?
`

func (q *Queries) UpdateTransaction(ctx context.Context, id int64, owner string, arg createTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Date, arg.Description, arg.Amount, arg.Category,
		arg.ResponsibleParty, arg.BankAccount, arg.ReceiptPlan,
		arg.Recurring, arg.RecurrenceCount, arg.Status,
		id, owner,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ? AND owner = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64, owner string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id, owner)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const sumByKind = `
SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE owner = ? AND kind = ?
`

const sumByKindStatus = `
SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE owner = ? AND kind = ? AND status = ?
`

func (q *Queries) SumByKind(ctx context.Context, owner, kind string) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx, sumByKind, owner, kind).Scan(&total)
	return total, err
}

func (q *Queries) SumByKindStatus(ctx context.Context, owner, kind, status string) (float64, error) {
	var total float64
	err := q.db.QueryRowContext(ctx, sumByKindStatus, owner, kind, status).Scan(&total)
	return total, err
}

const sumPaidExpensesByCategory = `
SELECT category, COALESCE(SUM(amount), 0) AS total
FROM transactions
WHERE owner = ? AND kind = 'expense' AND status = 'Pago'
  AND category IS NOT NULL AND category != ''
GROUP BY category
ORDER BY total DESC, category ASC
`

const sumIncomeByResponsible = `
SELECT responsible_party, COALESCE(SUM(amount), 0) AS total
FROM transactions
WHERE owner = ? AND kind = 'income'
  AND responsible_party IS NOT NULL AND responsible_party != ''
GROUP BY responsible_party
ORDER BY total DESC, responsible_party ASC
`

const sumIncomeByBank = `
SELECT bank_account, COALESCE(SUM(amount), 0) AS total
FROM transactions
WHERE owner = ? AND kind = 'income'
  AND bank_account IS NOT NULL AND bank_account != ''
GROUP BY bank_account
ORDER BY total DESC, bank_account ASC
`

func (q *Queries) groupedSums(ctx context.Context, query, owner string) ([]groupedSum, error) {
	rows, err := q.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []groupedSum
	for rows.Next() {
		var g groupedSum
		if err := rows.Scan(&g.Name, &g.Total); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (q *Queries) SumPaidExpensesByCategory(ctx context.Context, owner string) ([]groupedSum, error) {
	return q.groupedSums(ctx, sumPaidExpensesByCategory, owner)
}

func (q *Queries) SumIncomeByResponsible(ctx context.Context, owner string) ([]groupedSum, error) {
	return q.groupedSums(ctx, sumIncomeByResponsible, owner)
}

func (q *Queries) SumIncomeByBank(ctx context.Context, owner string) ([]groupedSum, error) {
	return q.groupedSums(ctx, sumIncomeByBank, owner)
}

const insertInstallmentDate = `
INSERT INTO installment_dates (transaction_id, position, due_date) VALUES (?, ?, ?)
`

func (q *Queries) InsertInstallmentDate(ctx context.Context, transactionID int64, position int, dueDate string) error {
	_, err := q.db.ExecContext(ctx, insertInstallmentDate, transactionID, position, dueDate)
	return err
}

const deleteInstallmentDates = `
DELETE FROM installment_dates WHERE transaction_id = ?
`

func (q *Queries) DeleteInstallmentDates(ctx context.Context, transactionID int64) error {
	_, err := q.db.ExecContext(ctx, deleteInstallmentDates, transactionID)
	return err
}

const listInstallmentDatesByOwner = `
SELECT i.transaction_id, i.due_date
FROM installment_dates i
JOIN transactions t ON t.id = i.transaction_id
WHERE t.owner = ?
ORDER BY i.transaction_id, i.position
`

func (q *Queries) ListInstallmentDatesByOwner(ctx context.Context, owner string) (map[int64][]string, error) {
	rows, err := q.db.QueryContext(ctx, listInstallmentDatesByOwner, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var due string
		if err := rows.Scan(&id, &due); err != nil {
			return nil, err
		}
		out[id] = append(out[id], due)
	}
	return out, rows.Err()
}

const listInstallmentDates = `
SELECT due_date FROM installment_dates WHERE transaction_id = ? ORDER BY position
`

func (q *Queries) ListInstallmentDates(ctx context.Context, transactionID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listInstallmentDates, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var due string
		if err := rows.Scan(&due); err != nil {
			return nil, err
		}
		out = append(out, due)
	}
	return out, rows.Err()
}

const createUser = `
INSERT INTO users (username, password_hash) VALUES (?, ?)
`

func (q *Queries) CreateUser(ctx context.Context, username, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, createUser, username, passwordHash)
	return err
}

const getUserPasswordHash = `
SELECT password_hash FROM users WHERE username = ?
`

func (q *Queries) GetUserPasswordHash(ctx context.Context, username string) (string, error) {
	var hash string
	err := q.db.QueryRowContext(ctx, getUserPasswordHash, username).Scan(&hash)
	return hash, err
}
