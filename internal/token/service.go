package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// Значения по умолчанию, если сроки не заданы в конфиге.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims — полезная нагрузка токенов: id пользователя и роль
// (роль присутствует только в access-токене).
type Claims struct {
	UserID uint   `json:"id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Config — секреты и строки сроков жизни ("15m", "1h", "7d", "3600"...).
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpire  string
	RefreshExpire string
}

type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service { return &Service{cfg: cfg} }

// ParseExpiry разбирает строку срока вида "<целое><суффикс>":
// d — дни, h — часы, m — минуты, s — секунды. Незнакомый суффикс
// трактуется как секунды, пустая строка — fallback. Дробных и
// составных значений ("1h30m") нет намеренно.
func ParseExpiry(spec string, fallback time.Duration) time.Duration {
	if spec == "" {
		return fallback
	}
	i := 0
	for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
		i++
	}
	if i == 0 {
		return fallback
	}
	n := 0
	for _, c := range spec[:i] {
		n = n*10 + int(c-'0')
	}
	switch spec[len(spec)-1] {
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	case 'h':
		return time.Duration(n) * time.Hour
	case 'm':
		return time.Duration(n) * time.Minute
	default: // 's' и всё прочее — секунды
		return time.Duration(n) * time.Second
	}
}

// AccessTTL / RefreshTTL — единственное место, где строки сроков
// из конфига превращаются в длительности.
func (s *Service) AccessTTL() time.Duration {
	return ParseExpiry(s.cfg.AccessExpire, DefaultAccessTTL)
}

func (s *Service) RefreshTTL() time.Duration {
	return ParseExpiry(s.cfg.RefreshExpire, DefaultRefreshTTL)
}

// SignAccess выпускает короткоживущий access-токен с ролью.
func (s *Service) SignAccess(userID uint, role string) (string, error) {
	return s.sign(Claims{UserID: userID, Role: role}, s.cfg.AccessSecret, s.AccessTTL())
}

// SignRefresh выпускает refresh-токен (без роли).
func (s *Service) SignRefresh(userID uint) (string, error) {
	return s.sign(Claims{UserID: userID}, s.cfg.RefreshSecret, s.RefreshTTL())
}

// jti делает токены уникальными даже при выпуске в одну и ту же секунду:
// колонка token в refresh_tokens под uniqueIndex.
func (s *Service) sign(c Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(secret))
}

func (s *Service) VerifyAccess(raw string) (*Claims, error) {
	return verify(raw, s.cfg.AccessSecret)
}

func (s *Service) VerifyRefresh(raw string) (*Claims, error) {
	return verify(raw, s.cfg.RefreshSecret)
}

func verify(raw, secret string) (*Claims, error) {
	var c Claims
	t, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return []byte(secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case err != nil:
		return nil, ErrInvalid
	case !t.Valid:
		return nil, ErrInvalid
	}
	return &c, nil
}
