package database

import (
	"fmt"
	"time"

	"letterdrop/internal/domain/post"
	"letterdrop/internal/domain/subscriber"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// SeedResult summarizes what SeedDevelopment created.
type SeedResult struct {
	Subscribers []subscriber.Subscriber
	Posts       []post.Post
}

// SeedDevelopment creates a handful of confirmed subscribers and a draft
// post so the pipeline can be exercised locally. Idempotent: rows that
// already exist are left alone.
func SeedDevelopment() (*SeedResult, error) {
	now := time.Now()
	result := &SeedResult{}

	for i := 1; i <= 3; i++ {
		sub := subscriber.Subscriber{
			ID:        uuid.New(),
			Email:     fmt.Sprintf("reader%d@example.com", i),
			Status:    subscriber.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("seed subscriber: %w", err)
		}
		result.Subscribers = append(result.Subscribers, sub)
	}

	draft := post.Post{
		ID:        uuid.New(),
		Slug:      "hello-world",
		Title:     "Hello World",
		Markdown:  "# Hello\n\nFirst issue.",
		HTML:      "<h1>Hello</h1>\n<p>First issue.</p>\n",
		Status:    post.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&draft).Error; err != nil {
		return nil, fmt.Errorf("seed post: %w", err)
	}
	result.Posts = append(result.Posts, draft)

	return result, nil
}
