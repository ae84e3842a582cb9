package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	StatusPending Status = "A Pagar"
	StatusPaid    Status = "Pago"
)

// Receipt plan labels the entry form offers. Any other label is accepted
// and simply yields no installment expansion.
const (
	PlanSingle       = "Parcela Única"
	PlanMoreThanSixX = "Mais de 6x"
)

type (
	Kind   string
	Status string

	Date struct {
		time.Time
	}

	// Transaction is the sole persisted entity. Income attributes and
	// expense attributes are mutually exclusive, partitioned by Kind.
	Transaction struct {
		ID          int64
		Owner       string
		Date        Date
		Description string
		Amount      decimal.Decimal
		Kind        Kind
		Category    string

		// Income only
		ResponsibleParty string
		BankAccount      string
		ReceiptPlan      string
		InstallmentDates []Date

		// Expense only
		Recurring       bool
		RecurrenceCount int64
		Status          Status
	}

	// TransactionPatch lists the fields an update may change. Nil means
	// "leave as is". The merged row is re-validated before persisting.
	TransactionPatch struct {
		Date             *Date
		Description      *string
		Amount           *decimal.Decimal
		Category         *string
		ResponsibleParty *string
		BankAccount      *string
		ReceiptPlan      *string
		InstallmentDates *[]Date
		Recurring        *bool
		RecurrenceCount  *int64
		Status           *Status
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid kind")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyOwner         = errors.New("empty owner")
	ErrMixedAttributes    = errors.New("income and expense attributes on the same transaction")
	ErrInstallmentDates   = errors.New("installment dates do not match receipt plan")
	ErrRecurrenceCount    = errors.New("invalid recurrence count")
)

// MaxDescriptionLen caps free-text descriptions.
const MaxDescriptionLen = 200

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// PlanInstallments extracts the installment count from a receipt plan
// label of the form "Nx" ("2x", "3x", ...). Every other label, including
// "Parcela Única" and "Mais de 6x", yields 0: no installment expansion.
func PlanInstallments(plan string) int {
	s := strings.TrimSpace(plan)
	if !strings.HasSuffix(s, "x") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "x"))
	if err != nil || n < 2 {
		return 0
	}
	return n
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	// Amounts carry at most two decimal places so that stored totals
	// re-sum exactly.
	if !t.Amount.Equal(t.Amount.Round(2)) {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}

	switch t.Kind {
	case KindIncome:
		if t.Recurring || t.RecurrenceCount != 0 || t.Status != "" {
			return ErrMixedAttributes
		}
		if n := PlanInstallments(t.ReceiptPlan); n > 0 {
			if len(t.InstallmentDates) != n {
				return ErrInstallmentDates
			}
			for _, d := range t.InstallmentDates {
				if err := d.Validate(); err != nil {
					return err
				}
				if d.Before(t.Date.Time) {
					return ErrInstallmentDates
				}
			}
		} else if len(t.InstallmentDates) != 0 {
			return ErrInstallmentDates
		}
	case KindExpense:
		if t.ResponsibleParty != "" || t.BankAccount != "" || t.ReceiptPlan != "" || len(t.InstallmentDates) != 0 {
			return ErrMixedAttributes
		}
		if !t.Status.Valid() {
			return ErrInvalidStatus
		}
		if t.Recurring && t.RecurrenceCount < 1 {
			return ErrRecurrenceCount
		}
		if !t.Recurring && t.RecurrenceCount != 0 {
			return ErrRecurrenceCount
		}
	}

	return nil
}

// Apply merges the patch onto t and returns the result. t itself is not
// modified. The caller validates the merged transaction.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ResponsibleParty != nil {
		t.ResponsibleParty = *p.ResponsibleParty
	}
	if p.BankAccount != nil {
		t.BankAccount = *p.BankAccount
	}
	if p.ReceiptPlan != nil {
		t.ReceiptPlan = *p.ReceiptPlan
	}
	if p.InstallmentDates != nil {
		t.InstallmentDates = *p.InstallmentDates
	}
	if p.Recurring != nil {
		t.Recurring = *p.Recurring
	}
	if p.RecurrenceCount != nil {
		t.RecurrenceCount = *p.RecurrenceCount
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

// Empty reports whether the patch changes nothing.
func (p TransactionPatch) Empty() bool {
	return p.Date == nil && p.Description == nil && p.Amount == nil &&
		p.Category == nil && p.ResponsibleParty == nil && p.BankAccount == nil &&
		p.ReceiptPlan == nil && p.InstallmentDates == nil && p.Recurring == nil &&
		p.RecurrenceCount == nil && p.Status == nil
}
