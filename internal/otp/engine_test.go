package otp

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"tally/internal/logs"
	"tally/internal/models"
	"tally/internal/repo"
)

func TestMain(m *testing.M) {
	logs.Init(logs.Options{})
	os.Exit(m.Run())
}

type fakeUsers struct {
	byEmail  map[string]*models.User
	verified []uint
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) MarkVerified(_ context.Context, id uint) error {
	f.verified = append(f.verified, id)
	for _, u := range f.byEmail {
		if u.ID == id {
			u.IsVerified = true
		}
	}
	return nil
}

type fakeOtps struct {
	rows   []models.Otp
	nextID uint
}

func (f *fakeOtps) Create(_ context.Context, o *models.Otp) (uint, error) {
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = time.Now()
	f.rows = append(f.rows, *o)
	return o.ID, nil
}

// FindValid повторяет правило стора: used=false, не истёк, самый свежий.
func (f *fakeOtps) FindValid(_ context.Context, email, code string) (*models.Otp, error) {
	var best *models.Otp
	for i := range f.rows {
		r := &f.rows[i]
		if r.Email != email || r.Code != code || r.Used || !r.ExpiresAt.After(time.Now()) {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = r
		}
	}
	if best == nil {
		return nil, repo.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeOtps) MarkUsed(_ context.Context, id uint) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Used = true
			return nil
		}
	}
	return repo.ErrNotFound
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

func newTestEngine(users *fakeUsers, otps *fakeOtps, mailer *fakeMailer) *Engine {
	return NewEngine(users, otps, mailer, nil, 10*time.Minute)
}

func unverifiedUser(id uint, email string) *models.User {
	return &models.User{ID: id, Email: email, Role: models.RoleUser}
}

func TestIssueUnknownUser(t *testing.T) {
	e := newTestEngine(&fakeUsers{byEmail: map[string]*models.User{}}, &fakeOtps{}, &fakeMailer{})
	if err := e.Issue(context.Background(), "nobody@x.com", models.OtpTypeRegister); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Issue = %v, want ErrUserNotFound", err)
	}
}

func TestIssueAlreadyVerified(t *testing.T) {
	u := unverifiedUser(1, "a@x.com")
	u.IsVerified = true
	users := &fakeUsers{byEmail: map[string]*models.User{"a@x.com": u}}
	otps := &fakeOtps{}
	mailer := &fakeMailer{}
	e := newTestEngine(users, otps, mailer)

	if err := e.Issue(context.Background(), "a@x.com", models.OtpTypeRegister); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("Issue = %v, want ErrAlreadyVerified", err)
	}
	if len(otps.rows) != 0 || len(mailer.sent) != 0 {
		t.Errorf("no rows or mail expected on failure, got %d rows / %d mails", len(otps.rows), len(mailer.sent))
	}

	// для login-кодов подтверждённость не мешает
	if err := e.Issue(context.Background(), "a@x.com", models.OtpTypeLogin); err != nil {
		t.Fatalf("Issue(login) = %v", err)
	}
}

func TestIssueEffects(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*models.User{"a@x.com": unverifiedUser(5, "a@x.com")}}
	otps := &fakeOtps{}
	mailer := &fakeMailer{}
	e := newTestEngine(users, otps, mailer)

	before := time.Now()
	if err := e.Issue(context.Background(), "a@x.com", models.OtpTypeRegister); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if len(otps.rows) != 1 {
		t.Fatalf("rows = %d, want exactly 1", len(otps.rows))
	}
	row := otps.rows[0]
	if row.UserID == nil || *row.UserID != 5 {
		t.Errorf("row.UserID = %v, want 5", row.UserID)
	}
	if len(row.Code) != 6 || row.Code < "100000" || row.Code > "999999" {
		t.Errorf("code %q out of 6-digit range", row.Code)
	}
	wantExp := before.Add(10 * time.Minute)
	if row.ExpiresAt.Before(wantExp) || row.ExpiresAt.After(wantExp.Add(time.Second)) {
		t.Errorf("ExpiresAt = %v, want ~%v", row.ExpiresAt, wantExp)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("mails = %d, want exactly 1", len(mailer.sent))
	}
	m := mailer.sent[0]
	if m.to != "a@x.com" {
		t.Errorf("mail to = %q", m.to)
	}
	want := "Your OTP is " + row.Code + ". It expires in 10 minutes."
	if m.body != want {
		t.Errorf("mail body = %q, want %q", m.body, want)
	}
}

func TestIssueMailFailure(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*models.User{"a@x.com": unverifiedUser(1, "a@x.com")}}
	e := newTestEngine(users, &fakeOtps{}, &fakeMailer{err: errors.New("smtp down")})
	if err := e.Issue(context.Background(), "a@x.com", models.OtpTypeRegister); err == nil {
		t.Fatal("Issue must surface mail failure")
	}
}

func TestConsumeRegisterFlow(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*models.User{"a@x.com": unverifiedUser(5, "a@x.com")}}
	otps := &fakeOtps{}
	mailer := &fakeMailer{}
	e := newTestEngine(users, otps, mailer)

	if err := e.Issue(context.Background(), "a@x.com", models.OtpTypeRegister); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	code := otps.rows[0].Code

	if err := e.Consume(context.Background(), "a@x.com", code); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !users.byEmail["a@x.com"].IsVerified {
		t.Error("register consume must verify the user")
	}

	// повторное гашение того же кода
	if err := e.Consume(context.Background(), "a@x.com", code); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("second Consume = %v, want ErrInvalidOrExpired", err)
	}
}

func TestConsumeLoginDoesNotVerify(t *testing.T) {
	users := &fakeUsers{byEmail: map[string]*models.User{"a@x.com": unverifiedUser(5, "a@x.com")}}
	otps := &fakeOtps{}
	e := newTestEngine(users, otps, &fakeMailer{})

	if err := e.Issue(context.Background(), "a@x.com", models.OtpTypeLogin); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := e.Consume(context.Background(), "a@x.com", otps.rows[0].Code); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(users.verified) != 0 {
		t.Error("login consume must not touch is_verified")
	}
}

func TestConsumeExpired(t *testing.T) {
	uid := uint(5)
	otps := &fakeOtps{rows: []models.Otp{{
		ID: 1, UserID: &uid, Email: "a@x.com", Code: "123456",
		Type: models.OtpTypeRegister, ExpiresAt: time.Now().Add(-time.Minute),
	}}}
	e := newTestEngine(&fakeUsers{byEmail: map[string]*models.User{}}, otps, &fakeMailer{})
	if err := e.Consume(context.Background(), "a@x.com", "123456"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("Consume(expired) = %v, want ErrInvalidOrExpired", err)
	}
}

func TestConsumeWrongCode(t *testing.T) {
	e := newTestEngine(&fakeUsers{byEmail: map[string]*models.User{}}, &fakeOtps{}, &fakeMailer{})
	if err := e.Consume(context.Background(), "a@x.com", "000000"); !errors.Is(err, ErrInvalidOrExpired) {
		t.Fatalf("Consume = %v, want ErrInvalidOrExpired", err)
	}
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != 6 || code < "100000" || code > "999999" {
			t.Fatalf("code %q out of range", code)
		}
	}
}
