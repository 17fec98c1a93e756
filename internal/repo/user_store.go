package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tally/internal/models"
)

// ErrNotFound — запись не найдена (любой стор пакета).
var ErrNotFound = errors.New("record not found")

type UserStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

// FindByEmail возвращает пользователя по email или ErrNotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create сохраняет нового пользователя и возвращает его id.
func (s *UserStore) Create(ctx context.Context, u *models.User) (uint, error) {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return 0, err
	}
	return u.ID, nil
}

// MarkVerified выставляет is_verified=true.
func (s *UserStore) MarkVerified(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).Update("is_verified", true).Error
}

// HasAdmin — есть ли хоть один пользователь с ролью Admin.
func (s *UserStore) HasAdmin(ctx context.Context) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
