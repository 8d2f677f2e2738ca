package repository

import (
	"context"

	"letterdrop/internal/domain/outbox"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresOutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

// Create inserts the event, treating a unique_key collision as benign
// duplicate suppression: the publish fact is already recorded, so there
// is nothing left to do.
func (r *PostgresOutboxRepository) Create(ctx context.Context, e *outbox.Event) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e).Error
}

func (r *PostgresOutboxRepository) ListByType(ctx context.Context, eventType string) ([]outbox.Event, error) {
	var events []outbox.Event
	err := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *PostgresOutboxRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&outbox.Event{}, "id = ?", id).Error
}
