package http

import (
	"encoding/json"
	"net/http"

	"financas/internal/core"
)

type summaryResponse struct {
	TotalIncome      string `json:"total_income"`
	PaidExpenses     string `json:"paid_expenses"`
	PendingExpenses  string `json:"pending_expenses"`
	RealBalance      string `json:"real_balance"`
	ProjectedBalance string `json:"projected_balance"`
}

type labeledAmount struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

type breakdownsResponse struct {
	ExpensesByCategory  []labeledAmount `json:"expenses_by_category"`
	IncomeByResponsible []labeledAmount `json:"income_by_responsible"`
	IncomeByBank        []labeledAmount `json:"income_by_bank"`
}

type monthFlowResponse struct {
	Month   string `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, owner string) {
	key := "summary:" + owner
	if body, ok := s.dashCache.Get(key); ok {
		writeCachedJSON(w, body)
		return
	}

	summary, err := s.finance.Summary(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := summaryResponse{
		TotalIncome:      summary.TotalIncome.StringFixed(2),
		PaidExpenses:     summary.PaidExpenses.StringFixed(2),
		PendingExpenses:  summary.PendingExpenses.StringFixed(2),
		RealBalance:      summary.RealBalance.StringFixed(2),
		ProjectedBalance: summary.ProjectedBalance.StringFixed(2),
	}
	s.respondAndCache(w, r, key, resp)
}

func (s *Server) handleBreakdowns(w http.ResponseWriter, r *http.Request, owner string) {
	key := "breakdowns:" + owner
	if body, ok := s.dashCache.Get(key); ok {
		writeCachedJSON(w, body)
		return
	}

	breakdowns, err := s.finance.Breakdowns(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := breakdownsResponse{
		ExpensesByCategory:  toLabeled(breakdowns.ExpensesByCategory),
		IncomeByResponsible: toLabeled(breakdowns.IncomeByResponsible),
		IncomeByBank:        toLabeled(breakdowns.IncomeByBank),
	}
	s.respondAndCache(w, r, key, resp)
}

// handleProjection serves the four-month cash-flow series.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request, owner string) {
	key := "projection:" + owner
	if body, ok := s.dashCache.Get(key); ok {
		writeCachedJSON(w, body)
		return
	}

	flows, err := s.finance.Projection(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.respondAndCache(w, r, key, toMonthFlows(flows))
}

// handleTrend serves the trailing-twelve-month historical series.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request, owner string) {
	key := "trend:" + owner
	if body, ok := s.dashCache.Get(key); ok {
		writeCachedJSON(w, body)
		return
	}

	flows, err := s.finance.Trend(r.Context(), owner)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.respondAndCache(w, r, key, toMonthFlows(flows))
}

func toMonthFlows(flows []core.MonthFlow) []monthFlowResponse {
	out := make([]monthFlowResponse, 0, len(flows))
	for _, f := range flows {
		out = append(out, monthFlowResponse{
			Month:   string(f.Month),
			Income:  f.Income.StringFixed(2),
			Expense: f.Expense.StringFixed(2),
			Balance: f.Balance.StringFixed(2),
		})
	}
	return out
}

func toLabeled(amounts []core.CategoryAmount) []labeledAmount {
	out := make([]labeledAmount, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, labeledAmount{Name: a.Name, Total: a.Total.StringFixed(2)})
	}
	return out
}

// respondAndCache marshals once, stores the body for later hits, and
// writes it out.
func (s *Server) respondAndCache(w http.ResponseWriter, r *http.Request, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.dashCache.Set(key, body)
	writeCachedJSON(w, body)
}
