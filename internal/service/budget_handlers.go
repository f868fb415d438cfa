package service

import (
	"net/http"
	"time"

	"github.com/toodl/toodl/internal/budget"
	"github.com/toodl/toodl/internal/currency"
	"github.com/toodl/toodl/internal/httputil"
)

type budgetEntryRequest struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Amount  string `json:"amount"`
	OneTime bool   `json:"oneTime,omitempty"`
}

type paceRequest struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Currency string `json:"currency"`
	Budget   string `json:"budget"`

	Entries []budgetEntryRequest `json:"entries"`
}

type paceResponse struct {
	Currency string           `json:"currency"`
	Pace     budget.PaceStats `json:"pace"`
	Totals   budget.Totals    `json:"totals"`

	BudgetMinor     int64  `json:"budgetMinor"`
	FormattedBudget string `json:"formattedBudget"`
	FormattedSpend  string `json:"formattedSpend"`
}

// BudgetPace evaluates a posted month of spending against a flexible budget.
// The computation is stateless; clients own the entry data.
func (s *Service) BudgetPace(w http.ResponseWriter, r *http.Request) {
	var req paceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Year < 1970 || req.Month < 1 || req.Month > 12 {
		httputil.WriteError(w, http.StatusBadRequest, "year and month (1-12) are required")
		return
	}
	code := normalizeCurrency(req.Currency)
	if code == "" {
		code = "USD"
	}
	if !currency.IsSupported(code) {
		httputil.WriteError(w, http.StatusBadRequest, "unsupported currency "+code)
		return
	}

	budgetMinor, err := currency.Parse(req.Budget, code)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid budget: "+err.Error())
		return
	}
	if budgetMinor <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "budget must be positive")
		return
	}

	entries := make([]budget.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid entry date "+e.Date)
			return
		}
		amountMinor, err := currency.Parse(e.Amount, code)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid entry amount: "+err.Error())
			return
		}
		entries = append(entries, budget.Entry{
			Date:        date,
			AmountMinor: amountMinor,
			OneTime:     e.OneTime,
		})
	}

	pace := budget.Pace(req.Year, time.Month(req.Month), budgetMinor, entries, time.Now().UTC())
	totals := budget.Sum(budgetMinor, entries)

	httputil.WriteJSON(w, http.StatusOK, paceResponse{
		Currency:        code,
		Pace:            pace,
		Totals:          totals,
		BudgetMinor:     budgetMinor,
		FormattedBudget: currency.Format(budgetMinor, code),
		FormattedSpend:  currency.Format(totals.SpendMinor, code),
	})
}
