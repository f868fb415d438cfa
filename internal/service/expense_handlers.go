package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/toodl/toodl/internal/currency"
	"github.com/toodl/toodl/internal/httputil"
	"github.com/toodl/toodl/internal/ledger"
	"github.com/toodl/toodl/internal/models"
	"github.com/toodl/toodl/internal/storage"
)

// expenseRequest accepts the amount either as a number in major units or as a
// display string like "$42.50". Exactly one of splits (percentages) or
// weights must be supplied.
type expenseRequest struct {
	Description string             `json:"description"`
	Amount      string             `json:"amount"`
	PaidBy      string             `json:"paidBy"`
	Splits      map[string]float64 `json:"splits,omitempty"`
	Weights     map[string]int64   `json:"weights,omitempty"`
}

// resolveExpense validates a request against the group and produces the
// model ready to persist. Weight splits are normalized to percentages here
// so storage only ever sees percentages.
func resolveExpense(req *expenseRequest, group *models.Group) (*models.Expense, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return nil, errors.New("description is required")
	}

	amountMinor, err := currency.Parse(req.Amount, group.Currency)
	if err != nil {
		return nil, err
	}
	if amountMinor <= 0 {
		return nil, errors.New("amount must be positive")
	}

	members := memberRefs(group)
	payer := ledger.ResolvePayer(req.PaidBy, members)
	if !group.HasMember(payer) {
		return nil, errors.New("paidBy must reference a group member")
	}

	splits := req.Splits
	switch {
	case len(req.Splits) > 0 && len(req.Weights) > 0:
		return nil, errors.New("provide either splits or weights, not both")
	case len(req.Weights) > 0:
		splits, err = ledger.WeightsToPercents(req.Weights)
		if err != nil {
			return nil, err
		}
	case len(req.Splits) == 0:
		// Default to an even split across the whole group.
		weights := make(map[string]int64, len(group.Members))
		for _, m := range group.Members {
			weights[m.ID] = 1
		}
		splits, err = ledger.WeightsToPercents(weights)
		if err != nil {
			return nil, err
		}
	}

	if err := ledger.ValidateSplits(splits, members); err != nil {
		return nil, err
	}

	return &models.Expense{
		GroupID:     group.ID,
		Description: req.Description,
		Amount:      currency.FromMinor(amountMinor, group.Currency).InexactFloat64(),
		AmountMinor: amountMinor,
		PaidBy:      payer,
		Splits:      splits,
	}, nil
}

// CreateExpense records a new expense.
func (s *Service) CreateExpense(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	var req expenseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := resolveExpense(&req, group)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		s.logger.Error("failed to create expense", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	s.logger.Info("expense created",
		"group_id", group.ID,
		"expense_id", expense.ID,
		"amount_minor", expense.AmountMinor,
		"paid_by", expense.PaidBy,
	)
	httputil.WriteJSON(w, http.StatusCreated, expense)
}

// ListExpenses returns a group's expenses, oldest first.
func (s *Service) ListExpenses(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	expenses, err := s.store.ListExpensesByGroup(r.Context(), group.ID)
	if err != nil {
		s.logger.Error("failed to list expenses", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, expenses)
}

// UpdateExpense replaces an expense wholesale.
func (s *Service) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}
	expenseID := chi.URLParam(r, "expenseID")

	existing, err := s.store.GetExpense(r.Context(), expenseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.Error("failed to load expense", "expense_id", expenseID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load expense")
		return
	}
	if existing.GroupID != group.ID {
		httputil.WriteError(w, http.StatusNotFound, "expense not found")
		return
	}

	var req expenseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := resolveExpense(&req, group)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense.ID = existing.ID
	expense.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		s.logger.Error("failed to update expense", "expense_id", expenseID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update expense")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, expense)
}

// DeleteExpense removes an expense and its splits. The expense must belong
// to the routed group.
func (s *Service) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}
	expenseID := chi.URLParam(r, "expenseID")

	existing, err := s.store.GetExpense(r.Context(), expenseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.Error("failed to load expense", "expense_id", expenseID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load expense")
		return
	}
	if existing.GroupID != group.ID {
		httputil.WriteError(w, http.StatusNotFound, "expense not found")
		return
	}

	if err := s.store.DeleteExpense(r.Context(), expenseID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.Error("failed to delete expense", "expense_id", expenseID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
