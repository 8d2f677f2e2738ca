package repository

import (
	"context"
	"time"

	"letterdrop/internal/domain/send"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresSendRepository struct {
	db *gorm.DB
}

func NewSendRepository(db *gorm.DB) SendRepository {
	return &PostgresSendRepository{db: db}
}

// CreateBatch bulk-inserts sends with conflict policy "ignore row on
// unique-key violation, continue with the rest of the batch". If the bulk
// insert fails for another reason, it falls back to per-row inserts so a
// single bad row cannot sink the whole fan-out.
func (r *PostgresSendRepository) CreateBatch(ctx context.Context, sends []send.Send) error {
	if len(sends) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sends).Error
	if err == nil {
		return nil
	}

	for i := range sends {
		rowErr := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&sends[i]).Error
		if rowErr != nil && !isUniqueViolation(rowErr) {
			return rowErr
		}
	}
	return nil
}

func (r *PostgresSendRepository) ListQueued(ctx context.Context, limit int) ([]QueuedSend, error) {
	var queued []QueuedSend
	err := r.db.WithContext(ctx).
		Table("sends").
		Select(`sends.id AS send_id,
			sends.post_id,
			sends.subscriber_id,
			sends.attempts,
			subscribers.email AS subscriber_email,
			posts.title AS post_title,
			posts.html AS post_html`).
		Joins("JOIN posts ON posts.id = sends.post_id").
		Joins("JOIN subscribers ON subscribers.id = sends.subscriber_id").
		Where("sends.status = ?", send.StatusQueued).
		Order("sends.created_at ASC").
		Limit(limit).
		Scan(&queued).Error
	return queued, err
}

func (r *PostgresSendRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&send.Send{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     send.StatusSent,
			"last_error": "",
			"updated_at": time.Now(),
		}).Error
}

func (r *PostgresSendRepository) MarkFailedAttempt(ctx context.Context, id uuid.UUID, attempts int, lastError string, terminal bool) error {
	status := send.StatusQueued
	if terminal {
		status = send.StatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&send.Send{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"attempts":   attempts,
			"last_error": lastError,
			"updated_at": time.Now(),
		}).Error
}

func (r *PostgresSendRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]send.Send, error) {
	var sends []send.Send
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&sends).Error
	return sends, err
}

func (r *PostgresSendRepository) CountByStatus(ctx context.Context, postID uuid.UUID) (map[send.Status]int64, error) {
	type row struct {
		Status send.Status
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&send.Send{}).
		Select("status, COUNT(*) AS n").
		Where("post_id = ?", postID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[send.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
