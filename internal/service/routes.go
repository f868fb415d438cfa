package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toodl/toodl/internal/currency"
	"github.com/toodl/toodl/internal/httputil"
	"github.com/toodl/toodl/internal/middleware"
)

// Routes builds the full HTTP surface.
func (s *Service) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.Register)
		r.Post("/auth/login", s.Login)

		r.Get("/currencies", func(w http.ResponseWriter, _ *http.Request) {
			httputil.WriteJSON(w, http.StatusOK, currency.Supported())
		})

		// Everything below requires a session token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwtManager))

			r.Get("/auth/me", s.Me)

			r.Post("/budgets/pace", s.BudgetPace)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", s.CreateGroup)
				r.Get("/", s.ListGroups)

				r.Route("/{groupID}", func(r chi.Router) {
					r.Get("/", s.GetGroup)
					r.Put("/", s.UpdateGroup)
					r.Delete("/", s.DeleteGroup)

					r.Post("/members", s.AddMember)
					r.Put("/members/{memberID}", s.RenameMember)
					r.Delete("/members/{memberID}", s.RemoveMember)

					r.Post("/expenses", s.CreateExpense)
					r.Get("/expenses", s.ListExpenses)
					r.Put("/expenses/{expenseID}", s.UpdateExpense)
					r.Delete("/expenses/{expenseID}", s.DeleteExpense)

					r.Post("/settlements", s.CreateSettlement)
					r.Get("/settlements", s.ListSettlements)
					r.Post("/settlements/{settlementID}/confirm", s.ConfirmSettlement)
					r.Delete("/settlements/{settlementID}", s.DeleteSettlement)

					r.Get("/balances", s.GetBalances)
					r.Get("/plan", s.GetPlan)
				})
			})
		})
	})

	return r
}
