package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"financas/internal/core"
	"financas/internal/services"
)

type transactionRequest struct {
	Date             string   `json:"date"`
	Description      string   `json:"description"`
	Amount           string   `json:"amount"`
	Kind             string   `json:"kind"`
	Category         string   `json:"category"`
	ResponsibleParty string   `json:"responsible_party,omitempty"`
	BankAccount      string   `json:"bank_account,omitempty"`
	ReceiptPlan      string   `json:"receipt_plan,omitempty"`
	InstallmentDates []string `json:"installment_dates,omitempty"`
	Recurring        bool     `json:"recurring,omitempty"`
	RecurrenceCount  int64    `json:"recurrence_count,omitempty"`
	Status           string   `json:"status,omitempty"`
}

func (req transactionRequest) toTransaction(owner string) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	dates, err := parseDates(req.InstallmentDates)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		Owner:            owner,
		Date:             date,
		Description:      req.Description,
		Amount:           amount,
		Kind:             core.Kind(req.Kind),
		Category:         req.Category,
		ResponsibleParty: req.ResponsibleParty,
		BankAccount:      req.BankAccount,
		ReceiptPlan:      req.ReceiptPlan,
		InstallmentDates: dates,
		Recurring:        req.Recurring,
		RecurrenceCount:  req.RecurrenceCount,
		Status:           core.Status(req.Status),
	}, nil
}

// transactionPatchRequest distinguishes absent fields from zero values.
type transactionPatchRequest struct {
	Date             *string   `json:"date"`
	Description      *string   `json:"description"`
	Amount           *string   `json:"amount"`
	Category         *string   `json:"category"`
	ResponsibleParty *string   `json:"responsible_party"`
	BankAccount      *string   `json:"bank_account"`
	ReceiptPlan      *string   `json:"receipt_plan"`
	InstallmentDates *[]string `json:"installment_dates"`
	Recurring        *bool     `json:"recurring"`
	RecurrenceCount  *int64    `json:"recurrence_count"`
	Status           *string   `json:"status"`
}

func (req transactionPatchRequest) toPatch() (core.TransactionPatch, error) {
	var p core.TransactionPatch

	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Date = &d
	}
	if req.Amount != nil {
		a, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.Amount = &a
	}
	if req.InstallmentDates != nil {
		dates, err := parseDates(*req.InstallmentDates)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		p.InstallmentDates = &dates
	}
	if req.Status != nil {
		st := core.Status(*req.Status)
		p.Status = &st
	}

	p.Description = req.Description
	p.Category = req.Category
	p.ResponsibleParty = req.ResponsibleParty
	p.BankAccount = req.BankAccount
	p.ReceiptPlan = req.ReceiptPlan
	p.Recurring = req.Recurring
	p.RecurrenceCount = req.RecurrenceCount

	return p, nil
}

func parseDates(raw []string) ([]core.Date, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dates := make([]core.Date, 0, len(raw))
	for _, s := range raw {
		d, err := core.ParseDate(s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

type transactionResponse struct {
	ID               int64    `json:"id"`
	Date             string   `json:"date"`
	Description      string   `json:"description"`
	Amount           string   `json:"amount"`
	Kind             string   `json:"kind"`
	Category         string   `json:"category,omitempty"`
	ResponsibleParty string   `json:"responsible_party,omitempty"`
	BankAccount      string   `json:"bank_account,omitempty"`
	ReceiptPlan      string   `json:"receipt_plan,omitempty"`
	InstallmentDates []string `json:"installment_dates,omitempty"`
	Recurring        bool     `json:"recurring,omitempty"`
	RecurrenceCount  int64    `json:"recurrence_count,omitempty"`
	Status           string   `json:"status,omitempty"`
}

func toResponse(t core.Transaction) transactionResponse {
	var dates []string
	for _, d := range t.InstallmentDates {
		dates = append(dates, d.String())
	}
	return transactionResponse{
		ID:               t.ID,
		Date:             t.Date.String(),
		Description:      t.Description,
		Amount:           t.Amount.StringFixed(2),
		Kind:             string(t.Kind),
		Category:         t.Category,
		ResponsibleParty: t.ResponsibleParty,
		BankAccount:      t.BankAccount,
		ReceiptPlan:      t.ReceiptPlan,
		InstallmentDates: dates,
		Recurring:        t.Recurring,
		RecurrenceCount:  t.RecurrenceCount,
		Status:           string(t.Status),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.finance.List(r.Context(), owner, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func filterFromQuery(r *http.Request) (services.ListFilter, error) {
	q := r.URL.Query()
	f := services.ListFilter{Search: q.Get("q")}

	if v := q.Get("kind"); v != "" {
		kind := core.Kind(v)
		if !kind.Valid() {
			return services.ListFilter{}, core.ErrInvalidKind
		}
		f.Kind = &kind
	}
	if v := q.Get("status"); v != "" {
		status := core.Status(v)
		if !status.Valid() {
			return services.ListFilter{}, core.ErrInvalidStatus
		}
		f.Status = &status
	}
	if v := q.Get("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return services.ListFilter{}, err
		}
		f.From = &d
	}
	if v := q.Get("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return services.ListFilter{}, err
		}
		f.To = &d
	}

	return f, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := req.toTransaction(owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.finance.Create(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateOwner(owner)
	t.ID = id
	writeJSON(w, http.StatusCreated, toResponse(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req transactionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "empty patch")
		return
	}

	ok, err := s.finance.Update(r.Context(), id, owner, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	s.invalidateOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	ok, err := s.finance.Delete(r.Context(), id, owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	s.invalidateOwner(owner)
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
