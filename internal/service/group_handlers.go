package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/toodl/toodl/internal/currency"
	"github.com/toodl/toodl/internal/httputil"
	"github.com/toodl/toodl/internal/middleware"
	"github.com/toodl/toodl/internal/models"
	"github.com/toodl/toodl/internal/storage"
)

type createGroupRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Members  []string `json:"members"`
}

type updateGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type addMemberRequest struct {
	FirstName    string `json:"firstName"`
	Email        string `json:"email,omitempty"`
	PayPalMeLink string `json:"paypalMeLink,omitempty"`
}

type renameMemberRequest struct {
	FirstName string `json:"firstName"`
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateGroup creates a group with an initial member list.
func (s *Service) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name is required")
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

	group := &models.Group{
		Name:      req.Name,
		Currency:  code,
		CreatedBy: middleware.GetUserID(r.Context()),
	}
	for _, name := range req.Members {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		group.Members = append(group.Members, models.Member{FirstName: name})
	}

	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		s.logger.Error("failed to create group", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	s.logger.Info("group created", "group_id", group.ID, "members", len(group.Members))
	httputil.WriteJSON(w, http.StatusCreated, group)
}

// GetGroup returns a group with its full member list.
func (s *Service) GetGroup(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

// ListGroups returns all groups visible to the caller.
func (s *Service) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		s.logger.Error("failed to list groups", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groups)
}

// UpdateGroup changes a group's name or currency.
func (s *Service) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	var req updateGroupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Currency != "" {
		code := normalizeCurrency(req.Currency)
		if !currency.IsSupported(code) {
			httputil.WriteError(w, http.StatusBadRequest, "unsupported currency "+code)
			return
		}
		group.Currency = code
	}

	if err := s.store.UpdateGroup(r.Context(), group); err != nil {
		s.logger.Error("failed to update group", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to update group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

// DeleteGroup removes a group and everything that hangs off it.
func (s *Service) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if err := s.store.DeleteGroup(r.Context(), groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "group not found")
			return
		}
		s.logger.Error("failed to delete group", "group_id", groupID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete group")
		return
	}
	s.logger.Info("group deleted", "group_id", groupID)
	w.WriteHeader(http.StatusNoContent)
}

// AddMember adds a member to a group.
func (s *Service) AddMember(w http.ResponseWriter, r *http.Request) {
	group := s.loadGroup(w, r, chi.URLParam(r, "groupID"))
	if group == nil {
		return
	}

	var req addMemberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.FirstName == "" {
		httputil.WriteError(w, http.StatusBadRequest, "firstName is required")
		return
	}

	member := &models.Member{
		FirstName:    req.FirstName,
		Email:        req.Email,
		PayPalMeLink: req.PayPalMeLink,
	}
	if err := s.store.AddMember(r.Context(), group.ID, member); err != nil {
		s.logger.Error("failed to add member", "group_id", group.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	s.logger.Info("member added", "group_id", group.ID, "member_id", member.ID)
	httputil.WriteJSON(w, http.StatusCreated, member)
}

// RenameMember changes a member's display name. Balances are keyed by member
// ID, so renaming never moves money.
func (s *Service) RenameMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "memberID")

	var req renameMemberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.FirstName == "" {
		httputil.WriteError(w, http.StatusBadRequest, "firstName is required")
		return
	}

	if err := s.store.RenameMember(r.Context(), groupID, memberID, req.FirstName); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "member not found")
			return
		}
		s.logger.Error("failed to rename member", "group_id", groupID, "member_id", memberID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to rename member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember deletes a member, refusing while any expense or settlement
// still references them.
func (s *Service) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "memberID")

	if err := s.store.RemoveMember(r.Context(), groupID, memberID); err != nil {
		switch {
		case errors.Is(err, storage.ErrMemberInUse):
			httputil.WriteError(w, http.StatusConflict, "member is referenced by expenses or settlements")
		case errors.Is(err, storage.ErrNotFound):
			httputil.WriteError(w, http.StatusNotFound, "member not found")
		default:
			s.logger.Error("failed to remove member", "group_id", groupID, "member_id", memberID, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to remove member")
		}
		return
	}
	s.logger.Info("member removed", "group_id", groupID, "member_id", memberID)
	w.WriteHeader(http.StatusNoContent)
}
