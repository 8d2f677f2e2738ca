package services

import (
	"context"
	"strings"
	"time"

	"letterdrop/internal/broadcast"
	"letterdrop/internal/domain/outbox"
	"letterdrop/internal/domain/post"
	"letterdrop/internal/render"
	"letterdrop/internal/repository"
	letterdrop_errors "letterdrop/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostService struct {
	db          *gorm.DB
	posts       repository.PostRepository
	sends       repository.SendRepository
	renderer    render.Renderer
	broadcaster *broadcast.Broadcaster
	clock       func() time.Time
}

func NewPostService(db *gorm.DB, renderer render.Renderer, broadcaster *broadcast.Broadcaster) *PostService {
	return &PostService{
		db:          db,
		posts:       repository.NewPostRepository(db),
		sends:       repository.NewSendRepository(db),
		renderer:    renderer,
		broadcaster: broadcaster,
		clock:       time.Now,
	}
}

type CreatePostInput struct {
	Slug        string
	Title       string
	Markdown    string
	ScheduledAt *time.Time
}

// Create stores a new post. HTML is derived from the markdown here, once;
// it never changes afterwards. A scheduled_at in the input creates the
// post SCHEDULED, otherwise it starts as a DRAFT.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (post.Post, error) {
	slug := strings.TrimSpace(strings.ToLower(in.Slug))
	title := strings.TrimSpace(in.Title)
	if slug == "" || title == "" || strings.TrimSpace(in.Markdown) == "" {
		return post.Post{}, letterdrop_errors.ErrInvalidInput
	}

	now := s.clock()
	p := post.Post{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     title,
		Markdown:  in.Markdown,
		HTML:      s.renderer.Render(in.Markdown),
		Status:    post.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.ScheduledAt != nil {
		p.Status = post.StatusScheduled
		p.ScheduledAt = in.ScheduledAt
	}

	if err := s.posts.Create(ctx, &p); err != nil {
		return post.Post{}, err
	}
	return p, nil
}

// Publish performs a direct publish: one transaction flips the post to
// PUBLISHED, stamps published_at and records the outbox event, then one
// synchronous broadcast cycle runs to minimize delivery latency. The
// unique_key on the event makes a double publish request a no-op.
func (s *PostService) Publish(ctx context.Context, id uuid.UUID) (post.Post, error) {
	current, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return post.Post{}, err
	}
	if !current.CanPublish() {
		return post.Post{}, letterdrop_errors.ErrInvalidTransition
	}

	now := s.clock()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewPostRepository(tx).MarkPublished(ctx, id, now); err != nil {
			return err
		}
		return repository.NewOutboxRepository(tx).Create(ctx, outbox.NewPostPublished(id, now))
	})
	if err != nil {
		return post.Post{}, err
	}

	s.broadcaster.RunCycle(ctx)

	return s.posts.GetByID(ctx, id)
}

func (s *PostService) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	p, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return post.Post{}, err
	}
	if p.Status != post.StatusPublished {
		return post.Post{}, letterdrop_errors.ErrNotFound
	}
	return p, nil
}

func (s *PostService) ListPublished(ctx context.Context, page, limit int) ([]post.Post, int64, error) {
	return s.posts.ListPublished(ctx, page, limit)
}

func (s *PostService) ListAll(ctx context.Context) ([]post.Post, error) {
	return s.posts.ListAll(ctx)
}

// DeliveryReport summarizes the send ledger for one post.
type DeliveryReport struct {
	PostID uuid.UUID             `json:"post_id"`
	Counts map[string]int64      `json:"counts"`
	Sends  []DeliveryReportEntry `json:"sends"`
}

type DeliveryReportEntry struct {
	SubscriberID uuid.UUID `json:"subscriber_id"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"last_error,omitempty"`
}

func (s *PostService) Deliveries(ctx context.Context, postID uuid.UUID) (DeliveryReport, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return DeliveryReport{}, err
	}

	rows, err := s.sends.ListByPost(ctx, postID)
	if err != nil {
		return DeliveryReport{}, err
	}
	counts, err := s.sends.CountByStatus(ctx, postID)
	if err != nil {
		return DeliveryReport{}, err
	}

	report := DeliveryReport{PostID: postID, Counts: make(map[string]int64, len(counts))}
	for status, n := range counts {
		report.Counts[string(status)] = n
	}
	for _, row := range rows {
		report.Sends = append(report.Sends, DeliveryReportEntry{
			SubscriberID: row.SubscriberID,
			Status:       string(row.Status),
			Attempts:     row.Attempts,
			LastError:    row.LastError,
		})
	}
	return report, nil
}
