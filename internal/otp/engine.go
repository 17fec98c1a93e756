package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"tally/internal/logs"
	"tally/internal/mail"
	"tally/internal/models"
	"tally/internal/repo"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyVerified  = errors.New("user already verified")
	ErrInvalidOrExpired = errors.New("invalid or expired otp")
)

// UserDirectory — то, что движку нужно от стора пользователей.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	MarkVerified(ctx context.Context, id uint) error
}

// Store — персист одноразовых кодов.
type Store interface {
	Create(ctx context.Context, o *models.Otp) (uint, error)
	FindValid(ctx context.Context, email, code string) (*models.Otp, error)
	MarkUsed(ctx context.Context, id uint) error
}

// Recorder — аудит (может быть nil).
type Recorder interface {
	Record(ctx context.Context, kind, email string, userID *uint, detail map[string]any) error
}

type Engine struct {
	users  UserDirectory
	otps   Store
	mailer mail.Sender
	events Recorder
	ttl    time.Duration
}

func NewEngine(users UserDirectory, otps Store, mailer mail.Sender, events Recorder, ttl time.Duration) *Engine {
	return &Engine{users: users, otps: otps, mailer: mailer, events: events, ttl: ttl}
}

// Issue выпускает код для существующего пользователя: ровно одна строка
// в otps и ровно одно письмо. Для type=register уже подтверждённый
// пользователь получает ErrAlreadyVerified.
func (e *Engine) Issue(ctx context.Context, email, otpType string) error {
	user, err := e.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if otpType == models.OtpTypeRegister && user.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	rec := models.Otp{
		UserID:    &user.ID,
		Email:     email,
		Code:      code,
		Type:      otpType,
		ExpiresAt: time.Now().Add(e.ttl),
	}
	if _, err := e.otps.Create(ctx, &rec); err != nil {
		return err
	}

	minutes := int(e.ttl / time.Minute)
	body := fmt.Sprintf("Your OTP is %s. It expires in %d minutes.", code, minutes)
	if err := e.mailer.Send(email, "Your Billing App OTP", body); err != nil {
		return err
	}

	e.audit(ctx, models.EventOtpIssued, email, &user.ID, map[string]any{"type": otpType})
	return nil
}

// Consume гасит код: повторная попытка с тем же кодом получает
// ErrInvalidOrExpired (used=true). Для register дополнительно
// подтверждается email владельца.
func (e *Engine) Consume(ctx context.Context, email, code string) error {
	rec, err := e.otps.FindValid(ctx, email, code)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrInvalidOrExpired
	}
	if err != nil {
		return err
	}
	if err := e.otps.MarkUsed(ctx, rec.ID); err != nil {
		return err
	}
	if rec.Type == models.OtpTypeRegister && rec.UserID != nil {
		if err := e.users.MarkVerified(ctx, *rec.UserID); err != nil {
			return err
		}
	}
	e.audit(ctx, models.EventOtpConsumed, email, rec.UserID, map[string]any{"type": rec.Type})
	return nil
}

func (e *Engine) audit(ctx context.Context, kind, email string, userID *uint, detail map[string]any) {
	if e.events == nil {
		return
	}
	if err := e.events.Record(ctx, kind, email, userID, detail); err != nil {
		logs.Logger.Warnf("audit %s: %v", kind, err)
	}
}

// generateCode — равномерный 6-значный десятичный код [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
