package services

import (
	"context"
	"sync"
	"testing"

	"letterdrop/internal/broadcast"
	"letterdrop/internal/domain/outbox"
	"letterdrop/internal/domain/post"
	"letterdrop/internal/domain/send"
	"letterdrop/internal/domain/subscriber"
	"letterdrop/internal/repository"
	"letterdrop/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&post.Post{}, &subscriber.Subscriber{}, &outbox.Event{}, &send.Send{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func newBroadcaster(db *gorm.DB, mail *recordingMailer) *broadcast.Broadcaster {
	log := logger.NewNop()
	return broadcast.NewBroadcaster(
		broadcast.NewExpander(db, log),
		broadcast.NewProcessor(repository.NewSendRepository(db), mail, log, 25, 5),
	)
}

type staticRenderer struct{}

func (staticRenderer) Render(markdown string) string {
	return "<render>" + markdown + "</render>"
}
