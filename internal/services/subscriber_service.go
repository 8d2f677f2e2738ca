package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"letterdrop/internal/domain/subscriber"
	"letterdrop/internal/repository"
	letterdrop_errors "letterdrop/pkg/errors"

	"github.com/google/uuid"
)

type SubscriberService struct {
	subs  repository.SubscriberRepository
	clock func() time.Time
}

func NewSubscriberService(subs repository.SubscriberRepository) *SubscriberService {
	return &SubscriberService{subs: subs, clock: time.Now}
}

// Subscribe upserts a subscription keyed on email. A new address gets a
// PENDING row with a fresh confirmation token; a PENDING one gets its
// token refreshed; an UNSUBSCRIBED one returns to PENDING. Subscribing an
// ACTIVE address is a no-op.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) (subscriber.Subscriber, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return subscriber.Subscriber{}, letterdrop_errors.ErrInvalidInput
	}

	existing, err := s.subs.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, letterdrop_errors.ErrNotFound) {
			return subscriber.Subscriber{}, err
		}
		token := newToken()
		sub := subscriber.Subscriber{
			ID:        uuid.New(),
			Email:     email,
			Status:    subscriber.StatusPending,
			Token:     &token,
			CreatedAt: s.clock(),
			UpdatedAt: s.clock(),
		}
		if createErr := s.subs.Create(ctx, &sub); createErr != nil {
			if errors.Is(createErr, letterdrop_errors.ErrAlreadyExists) {
				// Lost a race with a concurrent subscribe for the same
				// address; the winner's row is authoritative.
				return s.subs.GetByEmail(ctx, email)
			}
			return subscriber.Subscriber{}, createErr
		}
		return sub, nil
	}

	switch existing.Status {
	case subscriber.StatusActive:
		return existing, nil
	case subscriber.StatusPending, subscriber.StatusUnsubscribed:
		token := newToken()
		existing.Status = subscriber.StatusPending
		existing.Token = &token
		existing.UpdatedAt = s.clock()
		if err := s.subs.Update(ctx, &existing); err != nil {
			return subscriber.Subscriber{}, err
		}
		return existing, nil
	default:
		return subscriber.Subscriber{}, letterdrop_errors.ErrInvalidTransition
	}
}

// Confirm flips a PENDING subscription to ACTIVE and clears the token,
// which from then on exists nowhere.
func (s *SubscriberService) Confirm(ctx context.Context, token string) (subscriber.Subscriber, error) {
	if token == "" {
		return subscriber.Subscriber{}, letterdrop_errors.ErrInvalidInput
	}

	sub, err := s.subs.GetByToken(ctx, token)
	if err != nil {
		return subscriber.Subscriber{}, err
	}
	if sub.Status != subscriber.StatusPending {
		return subscriber.Subscriber{}, letterdrop_errors.ErrInvalidTransition
	}

	sub.Status = subscriber.StatusActive
	sub.Token = nil
	sub.UpdatedAt = s.clock()
	if err := s.subs.Update(ctx, &sub); err != nil {
		return subscriber.Subscriber{}, err
	}
	return sub, nil
}

// Unsubscribe marks the address UNSUBSCRIBED. Idempotent.
func (s *SubscriberService) Unsubscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	sub, err := s.subs.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if sub.Status == subscriber.StatusUnsubscribed {
		return nil
	}

	sub.Status = subscriber.StatusUnsubscribed
	sub.Token = nil
	sub.UpdatedAt = s.clock()
	return s.subs.Update(ctx, &sub)
}

func (s *SubscriberService) List(ctx context.Context, page, limit int) ([]subscriber.Subscriber, int64, error) {
	return s.subs.List(ctx, page, limit)
}

func newToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}
