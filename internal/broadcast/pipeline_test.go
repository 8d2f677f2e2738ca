package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"letterdrop/internal/domain/outbox"
	"letterdrop/internal/domain/post"
	"letterdrop/internal/domain/send"
	"letterdrop/internal/domain/subscriber"
	"letterdrop/internal/repository"
	"letterdrop/pkg/logger"

	"github.com/google/uuid"
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

type fakeMailer struct {
	mu       sync.Mutex
	sent     []string
	failWith error
}

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func seedSubscriber(t *testing.T, db *gorm.DB, email string, status subscriber.Status) subscriber.Subscriber {
	t.Helper()
	sub := subscriber.Subscriber{
		ID:        uuid.New(),
		Email:     email,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seed subscriber: %v", err)
	}
	return sub
}

func seedPost(t *testing.T, db *gorm.DB, slug string, status post.Status, scheduledAt *time.Time) post.Post {
	t.Helper()
	p := post.Post{
		ID:          uuid.New(),
		Slug:        slug,
		Title:       "Issue " + slug,
		Markdown:    "# hi",
		HTML:        "<h1>hi</h1>",
		Status:      status,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}

func seedEvent(t *testing.T, db *gorm.DB, postID uuid.UUID) outbox.Event {
	t.Helper()
	ev := outbox.NewPostPublished(postID, time.Now())
	if err := db.Create(ev).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return *ev
}

func countSends(t *testing.T, db *gorm.DB, postID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&send.Send{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		t.Fatalf("count sends: %v", err)
	}
	return n
}

func TestExpandFansOutToActiveSubscribersOnly(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedSubscriber(t, db, fmt.Sprintf("active%d@example.com", i), subscriber.StatusActive)
	}
	seedSubscriber(t, db, "pending@example.com", subscriber.StatusPending)
	seedSubscriber(t, db, "gone@example.com", subscriber.StatusUnsubscribed)

	p := seedPost(t, db, "fanout", post.StatusPublished, nil)
	seedEvent(t, db, p.ID)

	NewExpander(db, logger.NewNop()).Expand(ctx)

	if got := countSends(t, db, p.ID); got != 3 {
		t.Fatalf("expected 3 sends, got %d", got)
	}

	var sends []send.Send
	if err := db.Find(&sends).Error; err != nil {
		t.Fatalf("load sends: %v", err)
	}
	for _, s := range sends {
		if s.Status != send.StatusQueued {
			t.Fatalf("expected QUEUED, got %s", s.Status)
		}
		if s.Attempts != 0 {
			t.Fatalf("expected 0 attempts, got %d", s.Attempts)
		}
	}

	var remaining int64
	if err := db.Model(&outbox.Event{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected event to be deleted, %d remain", remaining)
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	seedSubscriber(t, db, "a@example.com", subscriber.StatusActive)
	seedSubscriber(t, db, "b@example.com", subscriber.StatusActive)
	p := seedPost(t, db, "idem", post.StatusPublished, nil)
	seedEvent(t, db, p.ID)

	exp := NewExpander(db, logger.NewNop())
	exp.Expand(ctx)
	// Event is gone; a second pass has nothing to do.
	exp.Expand(ctx)

	if got := countSends(t, db, p.ID); got != 2 {
		t.Fatalf("expected 2 sends after double expand, got %d", got)
	}
}

func TestExpandDuplicateEventsResolveToOneSendPerSubscriber(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	seedSubscriber(t, db, "a@example.com", subscriber.StatusActive)
	p := seedPost(t, db, "dup", post.StatusPublished, nil)

	// Two events for the same post, as if the unique_key guard had been
	// bypassed. The send constraint still collapses them.
	ev1 := outbox.Event{ID: uuid.New(), EventType: outbox.EventTypePostPublished, PostID: p.ID, UniqueKey: "post:" + p.ID.String(), CreatedAt: time.Now()}
	ev2 := outbox.Event{ID: uuid.New(), EventType: outbox.EventTypePostPublished, PostID: p.ID, UniqueKey: "other:" + p.ID.String(), CreatedAt: time.Now()}
	if err := db.Create(&ev1).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	if err := db.Create(&ev2).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}

	NewExpander(db, logger.NewNop()).Expand(ctx)

	if got := countSends(t, db, p.ID); got != 1 {
		t.Fatalf("expected 1 send, got %d", got)
	}
}

func TestExpandSnapshotExcludesLateActivations(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	seedSubscriber(t, db, "early@example.com", subscriber.StatusActive)
	p := seedPost(t, db, "snap", post.StatusPublished, nil)
	seedEvent(t, db, p.ID)

	NewExpander(db, logger.NewNop()).Expand(ctx)

	// Activates after expansion: no send for this post.
	seedSubscriber(t, db, "late@example.com", subscriber.StatusActive)
	NewExpander(db, logger.NewNop()).Expand(ctx)

	if got := countSends(t, db, p.ID); got != 1 {
		t.Fatalf("expected 1 send, got %d", got)
	}
}

func TestProcessQueuedMarksSent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	sub := seedSubscriber(t, db, "a@example.com", subscriber.StatusActive)
	p := seedPost(t, db, "sent", post.StatusPublished, nil)
	seedEvent(t, db, p.ID)
	NewExpander(db, logger.NewNop()).Expand(ctx)

	mail := &fakeMailer{}
	NewProcessor(repository.NewSendRepository(db), mail, logger.NewNop(), 25, 5).ProcessQueued(ctx)

	if mail.sentCount() != 1 {
		t.Fatalf("expected 1 email, got %d", mail.sentCount())
	}
	if mail.sent[0] != sub.Email {
		t.Fatalf("expected mail to %s, got %s", sub.Email, mail.sent[0])
	}

	var s send.Send
	if err := db.First(&s, "post_id = ?", p.ID).Error; err != nil {
		t.Fatalf("load send: %v", err)
	}
	if s.Status != send.StatusSent {
		t.Fatalf("expected SENT, got %s", s.Status)
	}
	if s.LastError != "" {
		t.Fatalf("expected last_error cleared, got %q", s.LastError)
	}
}

func TestProcessQueuedRetriesUntilThreshold(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	seedSubscriber(t, db, "a@example.com", subscriber.StatusActive)
	p := seedPost(t, db, "retry", post.StatusPublished, nil)
	seedEvent(t, db, p.ID)
	NewExpander(db, logger.NewNop()).Expand(ctx)

	mail := &fakeMailer{failWith: errors.New("mailbox on fire")}
	proc := NewProcessor(repository.NewSendRepository(db), mail, logger.NewNop(), 25, 5)

	for i := 1; i <= 4; i++ {
		proc.ProcessQueued(ctx)

		var s send.Send
		if err := db.First(&s, "post_id = ?", p.ID).Error; err != nil {
			t.Fatalf("load send: %v", err)
		}
		if s.Status != send.StatusQueued {
			t.Fatalf("attempt %d: expected QUEUED, got %s", i, s.Status)
		}
		if s.Attempts != i {
			t.Fatalf("attempt %d: expected attempts=%d, got %d", i, i, s.Attempts)
		}
	}

	proc.ProcessQueued(ctx)

	var s send.Send
	if err := db.First(&s, "post_id = ?", p.ID).Error; err != nil {
		t.Fatalf("load send: %v", err)
	}
	if s.Status != send.StatusFailed {
		t.Fatalf("expected FAILED, got %s", s.Status)
	}
	if s.Attempts != 5 {
		t.Fatalf("expected attempts=5, got %d", s.Attempts)
	}
	if s.LastError != "mailbox on fire" {
		t.Fatalf("expected last failure reason, got %q", s.LastError)
	}

	// Terminal: a further pass never touches the row.
	proc.ProcessQueued(ctx)
	var after send.Send
	if err := db.First(&after, "post_id = ?", p.ID).Error; err != nil {
		t.Fatalf("load send: %v", err)
	}
	if after.Attempts != 5 || after.Status != send.StatusFailed {
		t.Fatalf("terminal row mutated: status=%s attempts=%d", after.Status, after.Attempts)
	}
}

func TestProcessQueuedBoundsBatch(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		seedSubscriber(t, db, fmt.Sprintf("s%02d@example.com", i), subscriber.StatusActive)
	}
	p := seedPost(t, db, "batch", post.StatusPublished, nil)
	seedEvent(t, db, p.ID)
	NewExpander(db, logger.NewNop()).Expand(ctx)

	mail := &fakeMailer{}
	proc := NewProcessor(repository.NewSendRepository(db), mail, logger.NewNop(), 25, 5)
	proc.ProcessQueued(ctx)

	if mail.sentCount() != 25 {
		t.Fatalf("expected 25 emails in first batch, got %d", mail.sentCount())
	}

	var queued int64
	if err := db.Model(&send.Send{}).Where("status = ?", send.StatusQueued).Count(&queued).Error; err != nil {
		t.Fatalf("count queued: %v", err)
	}
	if queued != 15 {
		t.Fatalf("expected 15 left queued, got %d", queued)
	}

	proc.ProcessQueued(ctx)
	if mail.sentCount() != 40 {
		t.Fatalf("expected backlog drained to 40, got %d", mail.sentCount())
	}
}

func TestPromoteDuePublishesAndEmitsEvent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	p := seedPost(t, db, "due", post.StatusScheduled, &past)

	now := time.Now()
	NewPromoter(db, logger.NewNop()).PromoteDue(ctx, now)

	var got post.Post
	if err := db.First(&got, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if got.Status != post.StatusPublished {
		t.Fatalf("expected PUBLISHED, got %s", got.Status)
	}
	if got.PublishedAt == nil {
		t.Fatal("expected published_at to be stamped")
	}

	var events []outbox.Event
	if err := db.Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	if events[0].UniqueKey != "post:"+p.ID.String() {
		t.Fatalf("unexpected unique key %q", events[0].UniqueKey)
	}
}

func TestPromoteDueIgnoresFutureAndNonScheduled(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	scheduled := seedPost(t, db, "future", post.StatusScheduled, &future)
	draft := seedPost(t, db, "draft", post.StatusDraft, nil)

	NewPromoter(db, logger.NewNop()).PromoteDue(ctx, time.Now())

	for _, id := range []uuid.UUID{scheduled.ID, draft.ID} {
		var got post.Post
		if err := db.First(&got, "id = ?", id).Error; err != nil {
			t.Fatalf("load post: %v", err)
		}
		if got.Status == post.StatusPublished {
			t.Fatalf("post %s should not have been promoted", got.Slug)
		}
	}

	var events int64
	if err := db.Model(&outbox.Event{}).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 0 {
		t.Fatalf("expected no events, got %d", events)
	}
}

func TestPromoteDueIsRetriedSafely(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	p := seedPost(t, db, "twice", post.StatusScheduled, &past)

	prom := NewPromoter(db, logger.NewNop())
	prom.PromoteDue(ctx, time.Now())
	// Second pass sees no SCHEDULED rows; nothing changes.
	prom.PromoteDue(ctx, time.Now())

	var events int64
	if err := db.Model(&outbox.Event{}).Where("post_id = ?", p.ID).Count(&events).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected 1 event, got %d", events)
	}
}

func TestFullCycleIsIdempotent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedSubscriber(t, db, fmt.Sprintf("c%d@example.com", i), subscriber.StatusActive)
	}
	past := time.Now().Add(-time.Minute)
	p := seedPost(t, db, "cycle", post.StatusScheduled, &past)

	mail := &fakeMailer{}
	log := logger.NewNop()
	broadcaster := NewBroadcaster(
		NewExpander(db, log),
		NewProcessor(repository.NewSendRepository(db), mail, log, 25, 5),
	)
	promoter := NewPromoter(db, log)

	promoter.PromoteDue(ctx, time.Now())
	broadcaster.RunCycle(ctx)

	if mail.sentCount() != 3 {
		t.Fatalf("expected 3 emails after first cycle, got %d", mail.sentCount())
	}

	// A second full cycle with no intervening publishes does nothing.
	promoter.PromoteDue(ctx, time.Now())
	broadcaster.RunCycle(ctx)

	if mail.sentCount() != 3 {
		t.Fatalf("expected no new emails, got %d", mail.sentCount())
	}
	if got := countSends(t, db, p.ID); got != 3 {
		t.Fatalf("expected 3 sends, got %d", got)
	}
}

func TestSchedulerStartAndStopAreIdempotent(t *testing.T) {
	db := setupDB(t)
	log := logger.NewNop()

	mail := &fakeMailer{}
	broadcaster := NewBroadcaster(
		NewExpander(db, log),
		NewProcessor(repository.NewSendRepository(db), mail, log, 25, 5),
	)
	s := NewScheduler(NewPromoter(db, log), broadcaster, log, time.Hour)

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	s.Stop()
	s.Stop()
}

func TestSchedulerTickRunsPromoteThenBroadcast(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	log := logger.NewNop()

	seedSubscriber(t, db, "tick@example.com", subscriber.StatusActive)
	past := time.Now().Add(-time.Minute)
	p := seedPost(t, db, "tick", post.StatusScheduled, &past)

	mail := &fakeMailer{}
	broadcaster := NewBroadcaster(
		NewExpander(db, log),
		NewProcessor(repository.NewSendRepository(db), mail, log, 25, 5),
	)
	s := NewScheduler(NewPromoter(db, log), broadcaster, log, time.Hour)

	s.Tick(ctx)

	var got post.Post
	if err := db.First(&got, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if got.Status != post.StatusPublished {
		t.Fatalf("expected PUBLISHED after tick, got %s", got.Status)
	}
	if mail.sentCount() != 1 {
		t.Fatalf("expected 1 email after tick, got %d", mail.sentCount())
	}
}
