package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"tally/internal/models"
)

type OtpStore struct{ db *gorm.DB }

func NewOtpStore(db *gorm.DB) *OtpStore { return &OtpStore{db: db} }

func (s *OtpStore) Create(ctx context.Context, o *models.Otp) (uint, error) {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return 0, err
	}
	return o.ID, nil
}

// FindValid — последний живой код для пары (email, code):
// used=false, expires_at > now, при нескольких кандидатах берём самый свежий.
func (s *OtpStore) FindValid(ctx context.Context, email, code string) (*models.Otp, error) {
	var o models.Otp
	err := s.db.WithContext(ctx).
		Where("email = ? AND code = ? AND used = ? AND expires_at > ?", email, code, false, time.Now()).
		Order("created_at DESC").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OtpStore) MarkUsed(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Otp{}).
		Where("id = ?", id).Update("used", true).Error
}
