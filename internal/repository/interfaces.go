package repository

import (
	"context"
	"time"

	"letterdrop/internal/domain/outbox"
	"letterdrop/internal/domain/post"
	"letterdrop/internal/domain/send"
	"letterdrop/internal/domain/subscriber"

	"github.com/google/uuid"
)

type PostRepository interface {
	Create(ctx context.Context, p *post.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (post.Post, error)
	GetBySlug(ctx context.Context, slug string) (post.Post, error)
	ListPublished(ctx context.Context, page, limit int) ([]post.Post, int64, error)
	ListAll(ctx context.Context) ([]post.Post, error)
	// ListDue returns SCHEDULED posts whose scheduled_at is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]post.Post, error)
	// MarkPublished performs the one-way DRAFT/SCHEDULED -> PUBLISHED
	// transition and stamps published_at. Returns ErrInvalidTransition if
	// the post is missing or already published.
	MarkPublished(ctx context.Context, id uuid.UUID, now time.Time) error
}

type SubscriberRepository interface {
	Create(ctx context.Context, s *subscriber.Subscriber) error
	Update(ctx context.Context, s *subscriber.Subscriber) error
	GetByEmail(ctx context.Context, email string) (subscriber.Subscriber, error)
	GetByToken(ctx context.Context, token string) (subscriber.Subscriber, error)
	// ListActiveIDs snapshots the fan-out audience at the instant it runs.
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	List(ctx context.Context, page, limit int) ([]subscriber.Subscriber, int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, e *outbox.Event) error
	ListByType(ctx context.Context, eventType string) ([]outbox.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// QueuedSend is a send joined with the post and subscriber fields the
// mailer needs.
type QueuedSend struct {
	SendID          uuid.UUID
	PostID          uuid.UUID
	SubscriberID    uuid.UUID
	Attempts        int
	SubscriberEmail string
	PostTitle       string
	PostHTML        string
}

type SendRepository interface {
	// CreateBatch inserts sends, skipping any row that would violate the
	// (post_id, subscriber_id) uniqueness constraint.
	CreateBatch(ctx context.Context, sends []send.Send) error
	ListQueued(ctx context.Context, limit int) ([]QueuedSend, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	// MarkFailedAttempt records a failed attempt. The row stays QUEUED
	// until attempts reaches the threshold, at which point it becomes
	// FAILED and is never retried.
	MarkFailedAttempt(ctx context.Context, id uuid.UUID, attempts int, lastError string, terminal bool) error
	ListByPost(ctx context.Context, postID uuid.UUID) ([]send.Send, error)
	CountByStatus(ctx context.Context, postID uuid.UUID) (map[send.Status]int64, error)
}
