package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toodl/toodl/internal/currency"
	"github.com/toodl/toodl/internal/httputil"
	"github.com/toodl/toodl/internal/ledger"
	"github.com/toodl/toodl/internal/models"
)

type memberBalance struct {
	MemberID  string `json:"memberId"`
	FirstName string `json:"firstName"`

	// RawMinor ignores settlements; OpenMinor nets confirmed ones.
	// Positive means the member is owed money.
	RawMinor  int64 `json:"rawMinor"`
	OpenMinor int64 `json:"openMinor"`

	// PendingSentMinor is the member's in-flight (unconfirmed) payments.
	PendingSentMinor int64 `json:"pendingSentMinor"`

	Formatted string `json:"formatted"`
}

type balancesResponse struct {
	GroupID  string          `json:"groupId"`
	Currency string          `json:"currency"`
	Balances []memberBalance `json:"balances"`
}

type transferView struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountMinor int64  `json:"amountMinor"`
	Formatted   string `json:"formatted"`
	FromName    string `json:"fromName"`
	ToName      string `json:"toName"`
}

type planLeg struct {
	MemberID    string `json:"memberId"`
	FirstName   string `json:"firstName"`
	AmountMinor int64  `json:"amountMinor"`
	Formatted   string `json:"formatted"`
}

type planResponse struct {
	GroupID   string         `json:"groupId"`
	Currency  string         `json:"currency"`
	Transfers []transferView `json:"transfers"`

	// Member-scoped view, present when ?member= was given.
	Member *memberPlanView `json:"member,omitempty"`
}

type memberPlanView struct {
	MemberID string    `json:"memberId"`
	Owes     []planLeg `json:"owes"`
	Receives []planLeg `json:"receives"`

	// EffectiveOweMinor is total owed minus payments already sent but not
	// yet confirmed, floored at zero.
	TotalOweMinor     int64 `json:"totalOweMinor"`
	PendingSentMinor  int64 `json:"pendingSentMinor"`
	EffectiveOweMinor int64 `json:"effectiveOweMinor"`

	// IsPendingSettlement is set while any of the member's payments await
	// the payee's confirmation.
	IsPendingSettlement bool `json:"isPendingSettlement"`
}

// loadLedger pulls a group's expenses and settlements in ledger form.
func (s *Service) loadLedger(r *http.Request, group *models.Group) ([]ledger.ExpenseForBalance, []ledger.SettlementForBalance, error) {
	expenses, err := s.store.ListExpensesByGroup(r.Context(), group.ID)
	if err != nil {
		return nil, nil, err
	}
	settlements, err := s.store.ListSettlementsByGroup(r.Context(), group.ID)
	if err != nil {
		return nil, nil, err
	}

	exps := make([]ledger.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		exps[i] = ledger.ExpenseForBalance{
			AmountMinor: e.AmountMinor,
			PaidBy:      e.PaidBy,
			Splits:      e.Splits,
		}
	}
	setts := make([]ledger.SettlementForBalance, len(settlements))
	for i, st := range settlements {
		setts[i] = ledger.SettlementForBalance{
			PayerID:     st.PayerID,
			PayeeID:     st.PayeeID,
			AmountMinor: st.AmountMinor,
			Pending:     st.Status == models.SettlementPending,
		}
	}
	return exps, setts, nil
}

// GetBalances returns per-member raw and open balances.
func (s *Service) GetBalances(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	exps, setts, err := s.loadLedger(r, group)
	if err != nil {
		s.logger.Error("failed to load ledger", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load balances")
		return
	}

	members := memberRefs(group)
	raw := ledger.RawBalances(members, exps)
	open := ledger.OpenBalances(members, exps, setts)
	pending := ledger.PendingSent(setts)

	resp := balancesResponse{
		GroupID:  group.ID,
		Currency: group.Currency,
		Balances: make([]memberBalance, len(group.Members)),
	}
	for i, m := range group.Members {
		resp.Balances[i] = memberBalance{
			MemberID:         m.ID,
			FirstName:        m.FirstName,
			RawMinor:         raw[m.ID],
			OpenMinor:        open[m.ID],
			PendingSentMinor: pending[m.ID],
			Formatted:        currency.Format(open[m.ID], group.Currency),
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// GetPlan returns the minimal transfer plan that settles the group's open
// balances, optionally scoped to one member via ?member=.
func (s *Service) GetPlan(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	exps, setts, err := s.loadLedger(r, group)
	if err != nil {
		s.logger.Error("failed to load ledger", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to compute plan")
		return
	}

	members := memberRefs(group)
	open := ledger.OpenBalances(members, exps, setts)
	transfers := ledger.SettlementPlan(open)

	name := func(id string) string {
		if m := group.MemberByID(id); m != nil {
			return m.FirstName
		}
		return id
	}

	resp := planResponse{
		GroupID:   group.ID,
		Currency:  group.Currency,
		Transfers: make([]transferView, len(transfers)),
	}
	for i, t := range transfers {
		resp.Transfers[i] = transferView{
			From:        t.From,
			To:          t.To,
			AmountMinor: t.AmountMinor,
			Formatted:   currency.Format(t.AmountMinor, group.Currency),
			FromName:    name(t.From),
			ToName:      name(t.To),
		}
	}

	if memberID := r.URL.Query().Get("member"); memberID != "" {
		memberID = ledger.ResolvePayer(memberID, members)
		if !group.HasMember(memberID) {
			httputil.WriteError(w, http.StatusNotFound, "member not found")
			return
		}

		view := ledger.MemberView(transfers, memberID)
		pendingSent := ledger.PendingSent(setts)[memberID]

		mv := &memberPlanView{
			MemberID:         memberID,
			Owes:             make([]planLeg, len(view.Owes)),
			Receives:         make([]planLeg, len(view.Receives)),
			PendingSentMinor: pendingSent,
		}
		for i, leg := range view.Owes {
			mv.Owes[i] = planLeg{
				MemberID:    leg.To,
				FirstName:   name(leg.To),
				AmountMinor: leg.AmountMinor,
				Formatted:   currency.Format(leg.AmountMinor, group.Currency),
			}
			mv.TotalOweMinor += leg.AmountMinor
		}
		for i, leg := range view.Receives {
			mv.Receives[i] = planLeg{
				MemberID:    leg.From,
				FirstName:   name(leg.From),
				AmountMinor: leg.AmountMinor,
				Formatted:   currency.Format(leg.AmountMinor, group.Currency),
			}
		}

		mv.EffectiveOweMinor = mv.TotalOweMinor - pendingSent
		if mv.EffectiveOweMinor < 0 {
			mv.EffectiveOweMinor = 0
		}
		mv.IsPendingSettlement = pendingSent > 0
		resp.Member = mv
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
