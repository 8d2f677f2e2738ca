package httpdto

import (
	"time"

	"letterdrop/internal/domain/post"
)

type CreatePostRequest struct {
	Slug        string     `json:"slug" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Markdown    string     `json:"markdown" binding:"required"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type PostResponse struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	HTML        string     `json:"html"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewPostResponse(p post.Post) PostResponse {
	return PostResponse{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Title:       p.Title,
		HTML:        p.HTML,
		Status:      string(p.Status),
		ScheduledAt: p.ScheduledAt,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
	}
}

type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
