package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"tally/internal/logs"
	"tally/internal/models"
	"tally/internal/otp"
	"tally/internal/session"
)

// OtpService / SessionService — контракты доменных сервисов для хендлеров.
type OtpService interface {
	Issue(ctx context.Context, email, otpType string) error
	Consume(ctx context.Context, email, code string) error
}

type SessionService interface {
	Login(ctx context.Context, email, password string) (*session.TokenPair, error)
	Refresh(ctx context.Context, raw string) (string, error)
	Logout(ctx context.Context, raw string) error
}

type Handler struct {
	otps     OtpService
	sessions SessionService
}

func New(otps OtpService, sessions SessionService) *Handler {
	return &Handler{otps: otps, sessions: sessions}
}

// POST /api/auth/send-otp  {email, type}
func (h *Handler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Type  string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Type == "" {
		models.WriteError(w, http.StatusBadRequest, "email and type required", "")
		return
	}
	switch err := h.otps.Issue(r.Context(), in.Email, in.Type); {
	case errors.Is(err, otp.ErrUserNotFound):
		models.WriteError(w, http.StatusNotFound, "User not found. Admin should create user first.", "")
	case errors.Is(err, otp.ErrAlreadyVerified):
		models.WriteError(w, http.StatusBadRequest, "User already verified", "")
	case err != nil:
		serverError(w, r, err)
	default:
		models.WriteJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to email"})
	}
}

// POST /api/auth/verify-otp  {email, otp}
func (h *Handler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
		Otp   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Otp == "" {
		models.WriteError(w, http.StatusBadRequest, "email and otp required", "")
		return
	}
	switch err := h.otps.Consume(r.Context(), in.Email, in.Otp); {
	case errors.Is(err, otp.ErrInvalidOrExpired):
		models.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP", "")
	case err != nil:
		serverError(w, r, err)
	default:
		models.WriteJSON(w, http.StatusOK, map[string]string{"message": "OTP verified"})
	}
}

// POST /api/auth/login  {email, password}
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		models.WriteError(w, http.StatusBadRequest, "email and password required", "")
		return
	}
	pair, err := h.sessions.Login(r.Context(), in.Email, in.Password)
	switch {
	case errors.Is(err, session.ErrUserNotFound):
		// тот же текст, что и при неверном пароле, но исходный статус 404
		models.WriteError(w, http.StatusNotFound, "Invalid credentials", "")
	case errors.Is(err, session.ErrNotVerified):
		models.WriteError(w, http.StatusForbidden, "Email not verified. Please verify OTP.", "")
	case errors.Is(err, session.ErrBadPassword):
		models.WriteError(w, http.StatusBadRequest, "Invalid credentials", "")
	case err != nil:
		serverError(w, r, err)
	default:
		models.WriteJSON(w, http.StatusOK, pair)
	}
}

// POST /api/auth/refresh-token  {refreshToken}
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
		models.WriteError(w, http.StatusBadRequest, "refreshToken required", "")
		return
	}
	access, err := h.sessions.Refresh(r.Context(), in.RefreshToken)
	switch {
	case errors.Is(err, session.ErrTokenNotFound):
		models.WriteError(w, http.StatusUnauthorized, "Refresh token not found or already revoked", "")
	case errors.Is(err, session.ErrInvalidToken):
		models.WriteError(w, http.StatusUnauthorized, "Invalid refresh token", "")
	case err != nil:
		serverError(w, r, err)
	default:
		models.WriteJSON(w, http.StatusOK, map[string]string{"accessToken": access})
	}
}

// POST /api/auth/logout  {refreshToken}
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
		models.WriteError(w, http.StatusBadRequest, "refreshToken required", "")
		return
	}
	if err := h.sessions.Logout(r.Context(), in.RefreshToken); err != nil {
		serverError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	logs.Logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	models.WriteError(w, http.StatusInternalServerError, "Server error", err.Error())
}
