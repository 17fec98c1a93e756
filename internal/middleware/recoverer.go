package middleware

import (
	"net/http"
	"runtime/debug"

	"tally/internal/logs"
	"tally/internal/models"
)

// Recoverer перехватывает панику в обработчике, пишет лог со стеком
// и возвращает общий 500 в формате {message, error}.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				reqid := GetRequestID(r)
				logs.Logger.Errorf("panic: %v reqid=%s uri=%s method=%s\nstack:\n%s",
					rec, reqid, r.RequestURI, r.Method, string(debug.Stack()))
				models.WriteError(w, http.StatusInternalServerError,
					"Server error", "see logs by reqid "+reqid)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
