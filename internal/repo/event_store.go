package repo

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tally/internal/models"
)

type EventStore struct{ db *gorm.DB }

func NewEventStore(db *gorm.DB) *EventStore { return &EventStore{db: db} }

// Record пишет событие аудита. detail сериализуется в JSON-колонку;
// nil — событие без деталей.
func (s *EventStore) Record(ctx context.Context, kind, email string, userID *uint, detail map[string]any) error {
	ev := models.AuthEvent{Kind: kind, Email: email, UserID: userID}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		ev.Detail = datatypes.JSON(raw)
	}
	return s.db.WithContext(ctx).Create(&ev).Error
}
