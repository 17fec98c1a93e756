package authapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func RegisterRoutes(r *mux.Router, h *Handler) {
	sub := r.PathPrefix("/api/auth").Subrouter()
	sub.HandleFunc("/send-otp", h.SendOtp).Methods(http.MethodPost)
	sub.HandleFunc("/verify-otp", h.VerifyOtp).Methods(http.MethodPost)
	sub.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	sub.HandleFunc("/refresh-token", h.Refresh).Methods(http.MethodPost)
	sub.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}
