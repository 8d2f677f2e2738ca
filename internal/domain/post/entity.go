package post

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a post. Transitions are
// monotonic: DRAFT -> SCHEDULED -> PUBLISHED, or DRAFT -> PUBLISHED
// directly. PUBLISHED is terminal.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusScheduled Status = "SCHEDULED"
	StatusPublished Status = "PUBLISHED"
)

// Post represents posts. HTML is derived from Markdown once, at creation.
type Post struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string     `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Markdown    string     `gorm:"type:text;not null" json:"markdown"`
	HTML        string     `gorm:"type:text;not null" json:"html"`
	Status      Status     `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// CanPublish reports whether the publish transition is allowed from the
// current status.
func (p *Post) CanPublish() bool {
	return p.Status == StatusDraft || p.Status == StatusScheduled
}
