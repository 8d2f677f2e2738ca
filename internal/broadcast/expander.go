package broadcast

import (
	"context"
	"time"

	"letterdrop/internal/domain/outbox"
	"letterdrop/internal/domain/send"
	"letterdrop/internal/repository"
	"letterdrop/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Expander turns each pending PostPublished event into one QUEUED send
// per currently-ACTIVE subscriber, then deletes the event. Fan-out and
// deletion happen in one transaction per event, so a failed event is left
// untouched and retried on the next invocation. Re-running for the same
// event is a no-op beyond the rows that already exist: the
// (post_id, subscriber_id) constraint absorbs duplicate inserts.
type Expander struct {
	db    *gorm.DB
	log   *logger.Logger
	clock func() time.Time
}

func NewExpander(db *gorm.DB, log *logger.Logger) *Expander {
	return &Expander{db: db, log: log, clock: time.Now}
}

func (e *Expander) Expand(ctx context.Context) {
	events, err := repository.NewOutboxRepository(e.db).ListByType(ctx, outbox.EventTypePostPublished)
	if err != nil {
		e.log.Errorf("outbox expand: list events: %v", err)
		return
	}

	for _, ev := range events {
		if err := e.expandOne(ctx, ev); err != nil {
			e.log.Errorf("outbox expand: event %s left for retry: %v", ev.ID, err)
		}
	}
}

func (e *Expander) expandOne(ctx context.Context, ev outbox.Event) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The audience is a point-in-time snapshot: a subscriber who
		// activates after this runs gets no send for this post.
		ids, err := repository.NewSubscriberRepository(tx).ListActiveIDs(ctx)
		if err != nil {
			return err
		}

		now := e.clock()
		sends := make([]send.Send, 0, len(ids))
		for _, subscriberID := range ids {
			sends = append(sends, send.Send{
				ID:           uuid.New(),
				PostID:       ev.PostID,
				SubscriberID: subscriberID,
				Status:       send.StatusQueued,
				Attempts:     0,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}

		if err := repository.NewSendRepository(tx).CreateBatch(ctx, sends); err != nil {
			return err
		}
		return repository.NewOutboxRepository(tx).Delete(ctx, ev.ID)
	})
}
