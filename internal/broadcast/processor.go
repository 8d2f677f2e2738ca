package broadcast

import (
	"context"

	"letterdrop/internal/mailer"
	"letterdrop/internal/repository"
	"letterdrop/pkg/logger"
)

const (
	DefaultBatchSize   = 25
	DefaultMaxAttempts = 5
)

// Processor drains QUEUED sends in bounded batches. Each row's outcome is
// committed independently: one subscriber's permanent rejection never
// blocks delivery to the rest of the batch. A backlog larger than the
// batch size drains over successive invocations.
type Processor struct {
	sends       repository.SendRepository
	mailer      mailer.Mailer
	log         *logger.Logger
	batchSize   int
	maxAttempts int
}

func NewProcessor(sends repository.SendRepository, m mailer.Mailer, log *logger.Logger, batchSize, maxAttempts int) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Processor{
		sends:       sends,
		mailer:      m,
		log:         log,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

func (p *Processor) ProcessQueued(ctx context.Context) {
	batch, err := p.sends.ListQueued(ctx, p.batchSize)
	if err != nil {
		p.log.Errorf("send processor: list queued: %v", err)
		return
	}

	for _, item := range batch {
		if err := p.mailer.Send(ctx, item.SubscriberEmail, item.PostTitle, item.PostHTML); err != nil {
			attempts := item.Attempts + 1
			terminal := attempts >= p.maxAttempts
			if markErr := p.sends.MarkFailedAttempt(ctx, item.SendID, attempts, err.Error(), terminal); markErr != nil {
				p.log.Errorf("send processor: record failure for %s: %v", item.SendID, markErr)
				continue
			}
			if terminal {
				p.log.Errorf("send processor: send %s failed permanently after %d attempts: %v", item.SendID, attempts, err)
			} else {
				p.log.Warnf("send processor: send %s attempt %d failed, will retry: %v", item.SendID, attempts, err)
			}
			continue
		}

		if err := p.sends.MarkSent(ctx, item.SendID); err != nil {
			// The email went out but the row is still QUEUED; a later
			// invocation may mail it again. At-least-once, by contract.
			p.log.Errorf("send processor: mark sent %s: %v", item.SendID, err)
		}
	}
}
