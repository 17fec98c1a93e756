package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"tally/internal/logs"
	"tally/internal/middleware"
	"tally/internal/models"
	"tally/internal/provision"
	"tally/internal/repo"
)

// Provisioner — создание учёток администратором.
type Provisioner interface {
	CreateUser(ctx context.Context, in provision.CreateInput) (uint, error)
}

// UserDirectory — чтение профиля для /me.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

type Handler struct {
	prov  Provisioner
	users UserDirectory
}

func New(prov Provisioner, users UserDirectory) *Handler {
	return &Handler{prov: prov, users: users}
}

// POST /api/users/create  {name, email, password, role?, sendOtp?}
// Доступно только роли Admin (мидлварь выше по цепочке).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		SendOtp  *bool  `json:"sendOtp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" || in.Email == "" || in.Password == "" {
		models.WriteError(w, http.StatusBadRequest, "name, email and password required", "")
		return
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	sendOtp := true // по умолчанию новая учётка подтверждается по OTP
	if in.SendOtp != nil {
		sendOtp = *in.SendOtp
	}

	id, err := h.prov.CreateUser(r.Context(), provision.CreateInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     role,
		SendOtp:  sendOtp,
	})
	switch {
	case errors.Is(err, provision.ErrInvalidRole):
		models.WriteError(w, http.StatusBadRequest, "Invalid role. Only Manager or User allowed.", "")
	case errors.Is(err, provision.ErrAlreadyExists):
		models.WriteError(w, http.StatusBadRequest, "Email already registered", "")
	case err != nil:
		logs.Logger.Errorf("create user: %v", err)
		models.WriteError(w, http.StatusInternalServerError, "Server error", err.Error())
	default:
		models.WriteJSON(w, http.StatusOK, map[string]any{
			"message": fmt.Sprintf("%s created successfully", role),
			"userId":  id,
		})
	}
}

// GET /api/users/me — профиль текущего пользователя по access-токену.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		models.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		models.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if err != nil {
		logs.Logger.Errorf("me: %v", err)
		models.WriteError(w, http.StatusInternalServerError, "Server error", err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}
