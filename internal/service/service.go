// Package service wires the HTTP API: handlers decode JSON, enforce auth and
// membership, and delegate the arithmetic to the ledger, currency and budget
// packages. Handlers never do money math themselves.
package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/toodl/toodl/internal/auth"
	"github.com/toodl/toodl/internal/httputil"
	"github.com/toodl/toodl/internal/ledger"
	"github.com/toodl/toodl/internal/models"
	"github.com/toodl/toodl/internal/storage"
)

// Service holds the dependencies shared by all handlers.
type Service struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// New creates the HTTP service.
func New(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// memberRefs projects a group's members into the ledger's view of them.
func memberRefs(group *models.Group) []ledger.MemberRef {
	refs := make([]ledger.MemberRef, len(group.Members))
	for i, m := range group.Members {
		refs[i] = ledger.MemberRef{ID: m.ID, FirstName: m.FirstName}
	}
	return refs
}

// loadGroup fetches a group and writes the HTTP error itself on failure.
// Returns nil if the response has already been written.
func (s *Service) loadGroup(w http.ResponseWriter, r *http.Request, groupID string) *models.Group {
	group, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "group not found")
		} else {
			s.logger.Error("failed to load group", "group_id", groupID, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load group")
		}
		return nil
	}
	return group
}
