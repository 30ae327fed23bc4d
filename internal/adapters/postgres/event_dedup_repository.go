package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventDedupRepository remembers inbound event ids until their TTL lapses.
type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var rows []eventDedupModel
	err := r.db.WithContext(ctx).
		Select("event_id").
		Where("event_id = ? AND expires_at > ?", eventID, now).
		Limit(1).
		Find(&rows).Error
	return len(rows) > 0, err
}

// MarkProcessed upserts so an expired row for a replayed id is refreshed in place.
func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	rec := eventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"event_type", "processed_at", "expires_at"}),
	}).Create(&rec).Error
}
