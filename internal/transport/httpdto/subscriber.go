package httpdto

import (
	"time"

	"letterdrop/internal/domain/subscriber"
)

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UnsubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type SubscriberResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSubscriberResponse(s subscriber.Subscriber) SubscriberResponse {
	return SubscriberResponse{
		ID:        s.ID.String(),
		Email:     s.Email,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt,
	}
}
