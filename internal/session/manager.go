package session

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tally/internal/logs"
	"tally/internal/models"
	"tally/internal/repo"
	"tally/internal/token"
)

var (
	// ErrUserNotFound и ErrBadPassword наружу показываются одним и тем же
	// текстом "Invalid credentials", но различаются HTTP-статусом.
	ErrUserNotFound  = errors.New("user not found")
	ErrBadPassword   = errors.New("password mismatch")
	ErrNotVerified   = errors.New("email not verified")
	ErrTokenNotFound = errors.New("refresh token not found or revoked")
	ErrInvalidToken  = errors.New("invalid refresh token")
)

// UserDirectory — доступ к пользователям.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenStore — персист refresh-токенов; наличие строки = токен не отозван.
type TokenStore interface {
	Save(ctx context.Context, t *models.RefreshToken) (uint, error)
	Find(ctx context.Context, tok string) (*models.RefreshToken, error)
	Delete(ctx context.Context, tok string) error
}

// Signer — подпись/проверка токенов.
type Signer interface {
	SignAccess(userID uint, role string) (string, error)
	SignRefresh(userID uint) (string, error)
	VerifyRefresh(raw string) (*token.Claims, error)
	RefreshTTL() time.Duration
}

// Recorder — аудит (может быть nil).
type Recorder interface {
	Record(ctx context.Context, kind, email string, userID *uint, detail map[string]any) error
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Manager struct {
	users  UserDirectory
	store  TokenStore
	signer Signer
	events Recorder
}

func NewManager(users UserDirectory, store TokenStore, signer Signer, events Recorder) *Manager {
	return &Manager{users: users, store: store, signer: signer, events: events}
}

// Login: пользователь должен существовать, быть подтверждённым и знать
// пароль. На успех — пара токенов, refresh сохраняется в БД.
func (m *Manager) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := m.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrBadPassword
	}

	access, err := m.signer.SignAccess(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := m.signer.SignRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	row := models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(m.signer.RefreshTTL()),
	}
	if _, err := m.store.Save(ctx, &row); err != nil {
		return nil, err
	}

	m.audit(ctx, models.EventLogin, email, &user.ID, nil)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh: строка в БД — единственный источник истины про отзыв.
// Невалидная подпись попутно удаляет мёртвую строку. На успех выдаётся
// только новый access-токен, refresh в БД не ротируется.
// expires_at строки здесь сознательно не проверяется: срок контролирует
// подпись самого JWT.
func (m *Manager) Refresh(ctx context.Context, raw string) (string, error) {
	row, err := m.store.Find(ctx, raw)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}

	claims, err := m.signer.VerifyRefresh(raw)
	if err != nil {
		if derr := m.store.Delete(ctx, raw); derr != nil {
			logs.Logger.Warnf("delete dead refresh token: %v", derr)
		}
		return "", ErrInvalidToken
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}

	access, err := m.signer.SignAccess(user.ID, user.Role)
	if err != nil {
		return "", err
	}
	m.audit(ctx, models.EventRefresh, user.Email, &row.UserID, nil)
	return access, nil
}

// Logout идемпотентен: удаление несуществующей строки — тоже успех.
func (m *Manager) Logout(ctx context.Context, raw string) error {
	if err := m.store.Delete(ctx, raw); err != nil {
		return err
	}
	m.audit(ctx, models.EventLogout, "", nil, nil)
	return nil
}

func (m *Manager) audit(ctx context.Context, kind, email string, userID *uint, detail map[string]any) {
	if m.events == nil {
		return
	}
	if err := m.events.Record(ctx, kind, email, userID, detail); err != nil {
		logs.Logger.Warnf("audit %s: %v", kind, err)
	}
}
