package models

import (
	"encoding/json"
	"net/http"
)

// ErrorBody — единый формат ошибки API: {message, error?}.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"` // внутренняя деталь (в основном для 5xx)
}

func WriteError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Message: message, Error: detail})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
