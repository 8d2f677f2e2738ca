package repository

import (
	"context"
	"errors"

	"letterdrop/internal/domain/subscriber"
	letterdrop_errors "letterdrop/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresSubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) SubscriberRepository {
	return &PostgresSubscriberRepository{db: db}
}

func (r *PostgresSubscriberRepository) Create(ctx context.Context, s *subscriber.Subscriber) error {
	res := r.db.WithContext(ctx).Create(s)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return letterdrop_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresSubscriberRepository) Update(ctx context.Context, s *subscriber.Subscriber) error {
	res := r.db.WithContext(ctx).Save(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return letterdrop_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresSubscriberRepository) GetByEmail(ctx context.Context, email string) (subscriber.Subscriber, error) {
	var s subscriber.Subscriber
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return subscriber.Subscriber{}, letterdrop_errors.ErrNotFound
		}
		return subscriber.Subscriber{}, err
	}
	return s, nil
}

func (r *PostgresSubscriberRepository) GetByToken(ctx context.Context, token string) (subscriber.Subscriber, error) {
	var s subscriber.Subscriber
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return subscriber.Subscriber{}, letterdrop_errors.ErrNotFound
		}
		return subscriber.Subscriber{}, err
	}
	return s, nil
}

func (r *PostgresSubscriberRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&subscriber.Subscriber{}).
		Where("status = ?", subscriber.StatusActive).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *PostgresSubscriberRepository) List(ctx context.Context, page, limit int) ([]subscriber.Subscriber, int64, error) {
	var subs []subscriber.Subscriber
	var total int64

	q := r.db.WithContext(ctx).Model(&subscriber.Subscriber{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit

	if err := q.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&subs).Error; err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}
