package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"tally/internal/models"
	"tally/internal/token"
)

func newSigner() *token.Service {
	return token.NewService(token.Config{AccessSecret: "s", RefreshSecret: "r"})
}

func protectedRouter(tokens Verifier, roles ...string) *mux.Router {
	r := mux.NewRouter()
	sub := r.PathPrefix("/p").Subrouter()
	sub.Use(Auth(tokens))
	if len(roles) > 0 {
		sub.Use(RequireRoles(roles...))
	}
	sub.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r) == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return r
}

func doGet(r *mux.Router, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p/x", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMissingHeader(t *testing.T) {
	r := protectedRouter(newSigner())
	if rec := doGet(r, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthBadToken(t *testing.T) {
	r := protectedRouter(newSigner())
	if rec := doGet(r, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthValidToken(t *testing.T) {
	signer := newSigner()
	r := protectedRouter(signer)
	tok, err := signer.SignAccess(7, models.RoleUser)
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	if rec := doGet(r, tok); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireRolesDenies(t *testing.T) {
	signer := newSigner()
	r := protectedRouter(signer, models.RoleAdmin)
	tok, _ := signer.SignAccess(7, models.RoleUser)
	if rec := doGet(r, tok); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRolesAllows(t *testing.T) {
	signer := newSigner()
	r := protectedRouter(signer, models.RoleAdmin)
	tok, _ := signer.SignAccess(7, models.RoleAdmin)
	if rec := doGet(r, tok); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
