package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/artwall/artwall/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// A shared in-memory database disappears when its last connection
	// closes; pin a single connection for the test's lifetime.
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&domain.UserModel{},
		&domain.MessageModel{},
		&domain.StoryModel{},
		&domain.PostModel{},
		&domain.ConnectionModel{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func seedUser(t *testing.T, repo *GormUserRepository, email, username string) *domain.User {
	t.Helper()

	u := &domain.User{
		Email:        email,
		Username:     username,
		FullName:     "Test " + username,
		PasswordHash: "x",
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, repo, "alice@example.com", "alice")
	if u.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", got.Email)
	}

	got, err = repo.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id = %q, want %q", got.ID, u.ID)
	}

	if _, err := repo.GetByID(ctx, "missing"); err != ErrUserNotFound {
		t.Errorf("GetByID(missing) err = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := testDB(t)
	repo := NewGormUserRepository(db)

	seedUser(t, repo, "bob@example.com", "bob")

	err := repo.Create(context.Background(), &domain.User{
		Email:        "bob@example.com",
		Username:     "bob2",
		FullName:     "Bob Two",
		PasswordHash: "x",
	})
	if err != ErrEmailExists {
		t.Errorf("err = %v, want ErrEmailExists", err)
	}
}

func TestUserRepositorySearch(t *testing.T) {
	db := testDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	seedUser(t, repo, "carol@example.com", "carol")
	seedUser(t, repo, "carlos@example.com", "carlos")
	seedUser(t, repo, "dave@example.com", "dave")

	users, err := repo.Search(ctx, "CAR", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("found %d users, want 2", len(users))
	}
}

func TestUserRepositoryUpdateLists(t *testing.T) {
	db := testDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, repo, "erin@example.com", "erin")
	u.Followers = []string{"f1", "f2"}
	u.Bio = "painter"
	if err := repo.Update(ctx, u); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Followers) != 2 {
		t.Errorf("followers = %v, want 2 entries", got.Followers)
	}
	if got.Bio != "painter" {
		t.Errorf("bio = %q, want painter", got.Bio)
	}
}

func TestMessageRepositoryConversationOrder(t *testing.T) {
	db := testDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	texts := []string{"first", "second", "third"}
	for _, txt := range texts {
		msg := &domain.Message{
			FromUserID:  "a",
			ToUserID:    "b",
			Text:        txt,
			MessageType: domain.MessageTypeText,
		}
		if err := repo.Create(ctx, msg); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	// Reply from the other side.
	reply := &domain.Message{FromUserID: "b", ToUserID: "a", Text: "reply", MessageType: domain.MessageTypeText}
	if err := repo.Create(ctx, reply); err != nil {
		t.Fatalf("Create reply: %v", err)
	}
	// Unrelated conversation must not leak in.
	other := &domain.Message{FromUserID: "a", ToUserID: "c", Text: "nope", MessageType: domain.MessageTypeText}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	msgs, err := repo.FindConversation(ctx, "a", "b")
	if err != nil {
		t.Fatalf("FindConversation: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Errorf("messages out of order at %d", i)
		}
	}
	if msgs[0].Text != "first" {
		t.Errorf("first message = %q, want first", msgs[0].Text)
	}
	if msgs[3].Text != "reply" {
		t.Errorf("last message = %q, want reply", msgs[3].Text)
	}
}

func TestMessageRepositoryMarkSeen(t *testing.T) {
	db := testDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	in := &domain.Message{FromUserID: "b", ToUserID: "a", Text: "hi", MessageType: domain.MessageTypeText}
	out := &domain.Message{FromUserID: "a", ToUserID: "b", Text: "yo", MessageType: domain.MessageTypeText}
	for _, m := range []*domain.Message{in, out} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.MarkSeen(ctx, "b", "a"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	got, err := repo.GetByID(ctx, in.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Seen {
		t.Error("inbound message not marked seen")
	}

	got, err = repo.GetByID(ctx, out.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Seen {
		t.Error("outbound message wrongly marked seen")
	}
}

func TestMessageRepositoryFindRecentByUser(t *testing.T) {
	db := testDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}, {"c", "a"}, {"b", "c"}} {
		msg := &domain.Message{FromUserID: pair[0], ToUserID: pair[1], Text: "m", MessageType: domain.MessageTypeText}
		if err := repo.Create(ctx, msg); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	msgs, err := repo.FindRecentByUser(ctx, "a")
	if err != nil {
		t.Fatalf("FindRecentByUser: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.After(msgs[i-1].CreatedAt) {
			t.Errorf("messages not newest-first at %d", i)
		}
	}
}

func TestStoryRepositoryExpiry(t *testing.T) {
	db := testDB(t)
	repo := NewGormStoryRepository(db)
	ctx := context.Background()

	fresh := &domain.Story{UserID: "a", Content: "new", MediaType: domain.StoryTypeText}
	if err := repo.Create(ctx, fresh); err != nil {
		t.Fatalf("Create: %v", err)
	}
	stale := &domain.Story{UserID: "a", MediaType: domain.StoryTypeImage, MediaURL: "http://x/old.jpg"}
	if err := repo.Create(ctx, stale); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Backdate the stale story past the window.
	old := time.Now().Add(-25 * time.Hour)
	if err := db.Model(&domain.StoryModel{}).Where("id = ?", stale.ID).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	cutoff := time.Now().Add(-24 * time.Hour)

	active, err := repo.FindActive(ctx, []string{"a"}, cutoff)
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != fresh.ID {
		t.Errorf("active = %v, want only fresh story", active)
	}

	count, urls, err := repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if len(urls) != 1 || urls[0] != "http://x/old.jpg" {
		t.Errorf("urls = %v, want the stale media URL", urls)
	}

	active, err = repo.FindActive(ctx, []string{"a"}, cutoff.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("got %d stories after sweep, want 1", len(active))
	}
}

func TestPostRepositoryFeedAndLikes(t *testing.T) {
	db := testDB(t)
	repo := NewGormPostRepository(db)
	ctx := context.Background()

	p1 := &domain.Post{UserID: "a", Content: "one"}
	p2 := &domain.Post{UserID: "b", Content: "two", ImageURLs: []string{"http://x/1.jpg"}}
	p3 := &domain.Post{UserID: "c", Content: "hidden"}
	for _, p := range []*domain.Post{p1, p2, p3} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	feed, err := repo.FindFeed(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("FindFeed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("feed has %d posts, want 2", len(feed))
	}

	p2.Likes = append(p2.Likes, "a")
	if err := repo.Update(ctx, p2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByID(ctx, p2.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Likes) != 1 || got.Likes[0] != "a" {
		t.Errorf("likes = %v, want [a]", got.Likes)
	}
}

func TestConnectionRepositoryRateWindow(t *testing.T) {
	db := testDB(t)
	repo := NewGormConnectionRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		conn := &domain.Connection{
			FromUserID: "a",
			ToUserID:   "b",
			Status:     domain.ConnectionPending,
		}
		if err := repo.Create(ctx, conn); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	count, err := repo.CountRecentFrom(ctx, "a", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountRecentFrom: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	count, err = repo.CountRecentFrom(ctx, "b", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountRecentFrom: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestConnectionRepositoryStatusFlow(t *testing.T) {
	db := testDB(t)
	repo := NewGormConnectionRepository(db)
	ctx := context.Background()

	conn := &domain.Connection{FromUserID: "a", ToUserID: "b", Status: domain.ConnectionPending}
	if err := repo.Create(ctx, conn); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetPending(ctx, "a", "b")
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if got.ID != conn.ID {
		t.Errorf("id = %q, want %q", got.ID, conn.ID)
	}

	if err := repo.UpdateStatus(ctx, conn.ID, domain.ConnectionAccepted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := repo.GetPending(ctx, "a", "b"); err != ErrConnectionNotFound {
		t.Errorf("GetPending after accept err = %v, want ErrConnectionNotFound", err)
	}

	got, err = repo.GetBetween(ctx, "b", "a")
	if err != nil {
		t.Fatalf("GetBetween: %v", err)
	}
	if got.Status != domain.ConnectionAccepted {
		t.Errorf("status = %q, want accepted", got.Status)
	}
}
