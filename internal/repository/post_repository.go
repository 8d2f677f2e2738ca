package repository

import (
	"context"
	"errors"
	"time"

	"letterdrop/internal/domain/post"
	letterdrop_errors "letterdrop/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresPostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) Create(ctx context.Context, p *post.Post) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return letterdrop_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresPostRepository) GetByID(ctx context.Context, id uuid.UUID) (post.Post, error) {
	var p post.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return post.Post{}, letterdrop_errors.ErrNotFound
		}
		return post.Post{}, err
	}
	return p, nil
}

func (r *PostgresPostRepository) GetBySlug(ctx context.Context, slug string) (post.Post, error) {
	var p post.Post
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return post.Post{}, letterdrop_errors.ErrNotFound
		}
		return post.Post{}, err
	}
	return p, nil
}

func (r *PostgresPostRepository) ListPublished(ctx context.Context, page, limit int) ([]post.Post, int64, error) {
	var posts []post.Post
	var total int64

	q := r.db.WithContext(ctx).
		Model(&post.Post{}).
		Where("status = ?", post.StatusPublished)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit

	if err := q.
		Order("published_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *PostgresPostRepository) ListAll(ctx context.Context) ([]post.Post, error) {
	var posts []post.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

func (r *PostgresPostRepository) MarkPublished(ctx context.Context, id uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&post.Post{}).
		Where("id = ? AND status IN ?", id, []post.Status{post.StatusDraft, post.StatusScheduled}).
		Updates(map[string]interface{}{
			"status":       post.StatusPublished,
			"published_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return letterdrop_errors.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresPostRepository) ListDue(ctx context.Context, now time.Time) ([]post.Post, error) {
	var posts []post.Post
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", post.StatusScheduled, now).
		Find(&posts).Error
	return posts, err
}
