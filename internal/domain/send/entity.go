package send

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery state of a send. SENT and FAILED are
// terminal; QUEUED rows are retried until the attempt threshold.
type Status string

const (
	StatusQueued Status = "QUEUED"
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Send represents sends. The (post_id, subscriber_id) pair is unique and
// is the idempotency anchor for the whole pipeline: at most one row ever
// exists per pair, across retries, duplicate events and restarts. Rows
// are never deleted.
type Send struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	PostID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_sends_post_subscriber"`
	SubscriberID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_sends_post_subscriber"`
	Status       Status    `gorm:"type:varchar(20);not null;default:'QUEUED';index"`
	Attempts     int       `gorm:"not null;default:0"`
	LastError    string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Send) TableName() string {
	return "sends"
}
