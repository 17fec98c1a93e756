package provision

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"tally/internal/logs"
	"tally/internal/models"
	"tally/internal/repo"
)

var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrAlreadyExists = errors.New("email already registered")
)

const bcryptCost = 10

// UserStore — операции над пользователями, нужные провижинингу.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (uint, error)
	HasAdmin(ctx context.Context) (bool, error)
}

// OtpIssuer — выпуск register-кода для нового пользователя.
type OtpIssuer interface {
	Issue(ctx context.Context, email, otpType string) error
}

// Recorder — аудит (может быть nil).
type Recorder interface {
	Record(ctx context.Context, kind, email string, userID *uint, detail map[string]any) error
}

type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     string // пусто → User
	SendOtp  bool
}

// AdminBootstrap — учётные данные первого администратора из конфига.
type AdminBootstrap struct {
	Name     string
	Email    string
	Password string
}

type Service struct {
	users  UserStore
	otps   OtpIssuer
	events Recorder
}

func NewService(users UserStore, otps OtpIssuer, events Recorder) *Service {
	return &Service{users: users, otps: otps, events: events}
}

// CreateUser создаёт учётку с ролью Manager или User (Admin через этот
// путь не создаётся). При sendOtp пользователь рождается неподтверждённым
// и сразу получает register-код на почту.
func (s *Service) CreateUser(ctx context.Context, in CreateInput) (uint, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleManager && role != models.RoleUser {
		return 0, ErrInvalidRole
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return 0, ErrAlreadyExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return 0, err
	}
	user := models.User{
		Name:       in.Name,
		Email:      in.Email,
		Password:   string(hash),
		Role:       role,
		IsVerified: !in.SendOtp,
	}
	id, err := s.users.Create(ctx, &user)
	if err != nil {
		return 0, err
	}

	if in.SendOtp {
		if err := s.otps.Issue(ctx, in.Email, models.OtpTypeRegister); err != nil {
			return 0, err
		}
	}

	if s.events != nil {
		if err := s.events.Record(ctx, models.EventUserCreated, in.Email, &id,
			map[string]any{"role": role, "send_otp": in.SendOtp}); err != nil {
			logs.Logger.Warnf("audit %s: %v", models.EventUserCreated, err)
		}
	}
	return id, nil
}

// EnsureFirstAdmin выполняется один раз на старте процесса, до приёма
// трафика: если в БД нет ни одного Admin и в конфиге заданы все три
// значения — создаётся ровно один подтверждённый администратор.
func (s *Service) EnsureFirstAdmin(ctx context.Context, boot AdminBootstrap) error {
	exists, err := s.users.HasAdmin(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if boot.Name == "" || boot.Email == "" || boot.Password == "" {
		logs.Logger.Warn("first admin credentials not configured, skipping bootstrap")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(boot.Password), bcryptCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:       boot.Name,
		Email:      boot.Email,
		Password:   string(hash),
		Role:       models.RoleAdmin,
		IsVerified: true,
	}
	id, err := s.users.Create(ctx, &admin)
	if err != nil {
		return err
	}
	logs.Logger.Infof("first admin created id=%d email=%s", id, boot.Email)
	return nil
}
