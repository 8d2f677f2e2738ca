package subscriber

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the states a subscriber can be in.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusActive       Status = "ACTIVE"
	StatusUnsubscribed Status = "UNSUBSCRIBED"
)

// Subscriber represents subscribers. Token is set only while the
// subscription is PENDING and is cleared on confirmation.
type Subscriber struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(320);uniqueIndex;not null" json:"email"`
	Status    Status    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Token     *string   `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscriber) TableName() string {
	return "subscribers"
}
