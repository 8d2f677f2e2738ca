package broadcast

import (
	"context"
	"errors"
	"time"

	"letterdrop/internal/domain/outbox"
	"letterdrop/internal/repository"
	letterdrop_errors "letterdrop/pkg/errors"
	"letterdrop/pkg/logger"

	"gorm.io/gorm"
)

// Promoter transitions SCHEDULED posts whose due time has passed to
// PUBLISHED and emits their outbox event, one transaction per post.
// Fail-open: a failed transaction leaves the post SCHEDULED and it is
// retried on the next invocation, trading a delayed publish for
// scheduler availability.
type Promoter struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromoter(db *gorm.DB, log *logger.Logger) *Promoter {
	return &Promoter{db: db, log: log}
}

func (p *Promoter) PromoteDue(ctx context.Context, now time.Time) {
	due, err := repository.NewPostRepository(p.db).ListDue(ctx, now)
	if err != nil {
		p.log.Errorf("promoter: list due posts: %v", err)
		return
	}

	for _, dp := range due {
		err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repository.NewPostRepository(tx).MarkPublished(ctx, dp.ID, now); err != nil {
				return err
			}
			return repository.NewOutboxRepository(tx).Create(ctx, outbox.NewPostPublished(dp.ID, now))
		})
		if err != nil {
			if errors.Is(err, letterdrop_errors.ErrInvalidTransition) {
				// Another writer published it between the select and the
				// update. Its transaction owns the outbox event.
				continue
			}
			p.log.Errorf("promoter: post %s left scheduled for retry: %v", dp.ID, err)
		}
	}
}
