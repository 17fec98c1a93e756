package adminapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"tally/internal/middleware"
	"tally/internal/models"
)

// RegisterRoutes вешает /api/users/* за bearer-мидлварью:
// create дополнительно требует роль Admin, me — любой валидный токен.
func RegisterRoutes(r *mux.Router, h *Handler, tokens middleware.Verifier) {
	adminOnly := r.PathPrefix("/api/users").Subrouter()
	adminOnly.Use(middleware.Auth(tokens), middleware.RequireRoles(models.RoleAdmin))
	adminOnly.HandleFunc("/create", h.Create).Methods(http.MethodPost)

	self := r.PathPrefix("/api/users").Subrouter()
	self.Use(middleware.Auth(tokens))
	self.HandleFunc("/me", h.Me).Methods(http.MethodGet)
}
