package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tally/internal/models"
)

type TokenStore struct{ db *gorm.DB }

func NewTokenStore(db *gorm.DB) *TokenStore { return &TokenStore{db: db} }

func (s *TokenStore) Save(ctx context.Context, t *models.RefreshToken) (uint, error) {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return 0, err
	}
	return t.ID, nil
}

func (s *TokenStore) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete удаляет строку токена; отсутствие строки — не ошибка (logout идемпотентен).
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).
		Where("token = ?", token).Delete(&models.RefreshToken{}).Error
}
