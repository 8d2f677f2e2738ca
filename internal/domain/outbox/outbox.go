package outbox

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventTypePostPublished is the only event type the broadcast pipeline
// processes.
const EventTypePostPublished = "PostPublished"

// Event stores a publish fact waiting to be fanned out into sends.
// It is written in the same transaction as the post status transition
// and deleted in the same transaction as its fan-out.
type Event struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventType string    `gorm:"type:varchar(50);not null;index"`
	PostID    uuid.UUID `gorm:"type:uuid;not null"`
	UniqueKey string    `gorm:"type:varchar(80);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name
func (Event) TableName() string {
	return "outbox_events"
}

// KeyForPost builds the unique key that suppresses a second event for the
// same publish action.
func KeyForPost(postID uuid.UUID) string {
	return fmt.Sprintf("post:%s", postID)
}

// NewPostPublished builds the event emitted when a post transitions to
// PUBLISHED.
func NewPostPublished(postID uuid.UUID, now time.Time) *Event {
	return &Event{
		ID:        uuid.New(),
		EventType: EventTypePostPublished,
		PostID:    postID,
		UniqueKey: KeyForPost(postID),
		CreatedAt: now,
	}
}
