package service

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/toodl/toodl/internal/currency"
	"github.com/toodl/toodl/internal/httputil"
	"github.com/toodl/toodl/internal/middleware"
	"github.com/toodl/toodl/internal/models"
	"github.com/toodl/toodl/internal/storage"
)

type settlementRequest struct {
	PayerID string `json:"payerId"`
	PayeeID string `json:"payeeId"`
	Amount  string `json:"amount"`
	Method  string `json:"method,omitempty"`
	Note    string `json:"note,omitempty"`
}

func validMethod(m string) bool {
	switch models.SettlementMethod(m) {
	case models.MethodPayPal, models.MethodZelle, models.MethodCash, models.MethodVenmo, models.MethodOther, "":
		return true
	}
	return false
}

// CreateSettlement records a payment as pending. It stays pending until the
// payee confirms; until then it never changes the group's net balances.
func (s *Service) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	var req settlementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !group.HasMember(req.PayerID) || !group.HasMember(req.PayeeID) {
		httputil.WriteError(w, http.StatusBadRequest, "payerId and payeeId must reference group members")
		return
	}
	if req.PayerID == req.PayeeID {
		httputil.WriteError(w, http.StatusBadRequest, "payer and payee must differ")
		return
	}
	if !validMethod(req.Method) {
		httputil.WriteError(w, http.StatusBadRequest, "unknown settlement method "+req.Method)
		return
	}

	amountMinor, err := currency.Parse(req.Amount, group.Currency)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if amountMinor <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	settlement := &models.Settlement{
		GroupID:     group.ID,
		PayerID:     req.PayerID,
		PayeeID:     req.PayeeID,
		Amount:      currency.FromMinor(amountMinor, group.Currency).InexactFloat64(),
		AmountMinor: amountMinor,
		Method:      models.SettlementMethod(req.Method),
		Note:        req.Note,
		CreatedBy:   middleware.GetUserID(r.Context()),
	}
	if err := s.store.CreateSettlement(r.Context(), settlement); err != nil {
		s.logger.Error("failed to create settlement", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create settlement")
		return
	}

	s.logger.Info("settlement recorded",
		"group_id", group.ID,
		"settlement_id", settlement.ID,
		"payer", settlement.PayerID,
		"payee", settlement.PayeeID,
		"amount_minor", settlement.AmountMinor,
	)
	httputil.WriteJSON(w, http.StatusCreated, settlement)
}

// ListSettlements returns a group's settlements, newest first.
func (s *Service) ListSettlements(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	settlements, err := s.store.ListSettlementsByGroup(r.Context(), group.ID)
	if err != nil {
		s.logger.Error("failed to list settlements", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list settlements")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settlements)
}

// ConfirmSettlement flips a settlement to confirmed. Only the payee may
// confirm: the caller's account email must match the payee member's email.
// A payee member without a linked email cannot confirm, so such settlements
// stay pending until the member is given an email or the record is deleted.
func (s *Service) ConfirmSettlement(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}
	settlementID := chi.URLParam(r, "settlementID")

	settlement, err := s.store.GetSettlement(r.Context(), settlementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "settlement not found")
			return
		}
		s.logger.Error("failed to load settlement", "settlement_id", settlementID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load settlement")
		return
	}
	if settlement.GroupID != group.ID {
		httputil.WriteError(w, http.StatusNotFound, "settlement not found")
		return
	}

	payee := group.MemberByID(settlement.PayeeID)
	callerEmail := middleware.GetEmail(r.Context())
	if payee == nil || payee.Email == "" || payee.Email != callerEmail {
		httputil.WriteError(w, http.StatusForbidden, "only the payee may confirm a settlement")
		return
	}

	if err := s.store.ConfirmSettlement(r.Context(), settlementID, time.Now().Unix()); err != nil {
		s.logger.Error("failed to confirm settlement", "settlement_id", settlementID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to confirm settlement")
		return
	}

	confirmed, err := s.store.GetSettlement(r.Context(), settlementID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load settlement")
		return
	}
	s.logger.Info("settlement confirmed", "settlement_id", settlementID, "payee", settlement.PayeeID)
	httputil.WriteJSON(w, http.StatusOK, confirmed)
}

// DeleteSettlement removes a settlement record. The settlement must belong
// to the routed group.
func (s *Service) DeleteSettlement(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}
	settlementID := chi.URLParam(r, "settlementID")

	existing, err := s.store.GetSettlement(r.Context(), settlementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "settlement not found")
			return
		}
		s.logger.Error("failed to load settlement", "settlement_id", settlementID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load settlement")
		return
	}
	if existing.GroupID != group.ID {
		httputil.WriteError(w, http.StatusNotFound, "settlement not found")
		return
	}

	if err := s.store.DeleteSettlement(r.Context(), settlementID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "settlement not found")
			return
		}
		s.logger.Error("failed to delete settlement", "settlement_id", settlementID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete settlement")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
