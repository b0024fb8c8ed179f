package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/artwall/artwall/internal/config"
	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/media"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/pkg/jwt"
	"github.com/artwall/artwall/pkg/storage"
)

type fixture struct {
	db          *gorm.DB
	users       *repository.GormUserRepository
	messages    *repository.GormMessageRepository
	stories     *repository.GormStoryRepository
	posts       *repository.GormPostRepository
	connections *repository.GormConnectionRepository
	uploader    *media.Uploader
}

func newFixture(t *testing.T) *fixture {
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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

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

	st, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	uploader := media.NewUploader(st, config.MediaConfig{
		ChatImageWidth:    1280,
		ProfileImageWidth: 512,
		CoverImageWidth:   1280,
		JPEGQuality:       80,
	})

	return &fixture{
		db:          db,
		users:       repository.NewGormUserRepository(db),
		messages:    repository.NewGormMessageRepository(db),
		stories:     repository.NewGormStoryRepository(db),
		posts:       repository.NewGormPostRepository(db),
		connections: repository.NewGormConnectionRepository(db),
		uploader:    uploader,
	}
}

func (f *fixture) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        username + "@example.com",
		Username:     username,
		FullName:     "Test " + username,
		PasswordHash: "x",
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func pngReader(t *testing.T) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return &buf
}

func testJWT(t *testing.T) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager("test-secret", 15*time.Minute, time.Hour, "artwall-test")
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	return m
}

func TestAuthRegisterLoginRefresh(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.users, testJWT(t))
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret1",
		FullName: "Alice A",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("missing tokens after register")
	}
	if resp.User.PasswordHash == "x" {
		t.Fatal("password stored unhashed")
	}

	if _, err := svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "wrong"}); err != ErrInvalidCredentials {
		t.Errorf("bad password err = %v, want ErrInvalidCredentials", err)
	}
	login, err := svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Error("login returned different user")
	}

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("refresh returned empty access token")
	}
	// An access token must not work as a refresh token.
	if _, err := svc.Refresh(ctx, login.AccessToken); err != ErrInvalidCredentials {
		t.Errorf("access-as-refresh err = %v, want ErrInvalidCredentials", err)
	}
}

func TestMessageSendTextAndValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.messages, f.users, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	msg, event, err := svc.Send(ctx, alice.ID, &domain.SendMessageRequest{ToUserID: bob.ID, Text: "  hi there  "}, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID == "" || msg.ID != event.ID {
		t.Errorf("message id %q and event id %q disagree", msg.ID, event.ID)
	}
	if event.Text != "hi there" {
		t.Errorf("text = %q, want trimmed", event.Text)
	}
	if event.MessageType != domain.MessageTypeText {
		t.Errorf("type = %q, want text", event.MessageType)
	}
	if event.FromUser.Username != "alice" || event.ToUser.Username != "bob" {
		t.Errorf("participants = %s -> %s", event.FromUser.Username, event.ToUser.Username)
	}

	if _, _, err := svc.Send(ctx, alice.ID, &domain.SendMessageRequest{ToUserID: bob.ID, Text: "   "}, nil); err != ErrEmptyMessage {
		t.Errorf("empty send err = %v, want ErrEmptyMessage", err)
	}
}

func TestMessageSendImage(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.messages, f.users, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	_, event, err := svc.Send(ctx, alice.ID, &domain.SendMessageRequest{ToUserID: bob.ID}, pngReader(t))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if event.MessageType != domain.MessageTypeImage {
		t.Errorf("type = %q, want image", event.MessageType)
	}
	if event.MediaURL == "" {
		t.Error("image message has no media URL")
	}
}

func TestMessageConversationMarksSeen(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.messages, f.users, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if _, _, err := svc.Send(ctx, bob.ID, &domain.SendMessageRequest{ToUserID: alice.ID, Text: "one"}, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, _, err := svc.Send(ctx, alice.ID, &domain.SendMessageRequest{ToUserID: bob.ID, Text: "two"}, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs, err := svc.Conversation(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Text != "one" || msgs[1].Text != "two" {
		t.Errorf("order = %q, %q", msgs[0].Text, msgs[1].Text)
	}

	// Bob's message to Alice is now seen; Alice's own send is not.
	again, err := svc.Conversation(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	for _, m := range again {
		if m.FromUserID == bob.ID && !m.Seen {
			t.Error("inbound message not marked seen")
		}
		if m.FromUserID == alice.ID && m.Seen {
			t.Error("outbound message wrongly marked seen")
		}
	}
}

func TestMessageRecentExpandsParticipants(t *testing.T) {
	f := newFixture(t)
	svc := NewMessageService(f.messages, f.users, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	for _, pair := range []struct{ from, to string }{
		{bob.ID, alice.ID},
		{carol.ID, alice.ID},
		{alice.ID, bob.ID},
	} {
		if _, _, err := svc.Send(ctx, pair.from, &domain.SendMessageRequest{ToUserID: pair.to, Text: "m"}, nil); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	events, err := svc.Recent(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, e := range events {
		if e.FromUser.Username == "" || e.ToUser.Username == "" {
			t.Errorf("event %s has unexpanded participants", e.ID)
		}
	}
}

func TestUserFollowAndUnfollow(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.posts, f.connections, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if err := svc.Follow(ctx, alice.ID, alice.ID); err != ErrSelfTarget {
		t.Errorf("self follow err = %v, want ErrSelfTarget", err)
	}
	if err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := svc.Follow(ctx, alice.ID, bob.ID); err != ErrAlreadyFollowing {
		t.Errorf("double follow err = %v, want ErrAlreadyFollowing", err)
	}

	gotAlice, _ := f.users.GetByID(ctx, alice.ID)
	gotBob, _ := f.users.GetByID(ctx, bob.ID)
	if len(gotAlice.Following) != 1 || gotAlice.Following[0] != bob.ID {
		t.Errorf("alice following = %v", gotAlice.Following)
	}
	if len(gotBob.Followers) != 1 || gotBob.Followers[0] != alice.ID {
		t.Errorf("bob followers = %v", gotBob.Followers)
	}

	if err := svc.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	gotAlice, _ = f.users.GetByID(ctx, alice.ID)
	if len(gotAlice.Following) != 0 {
		t.Errorf("alice still following %v", gotAlice.Following)
	}
}

func TestUserConnectAndAccept(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.posts, f.connections, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	status, err := svc.Connect(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if status != domain.ConnectionPending {
		t.Errorf("status = %q, want pending", status)
	}
	if _, err := svc.Connect(ctx, alice.ID, bob.ID); err != ErrRequestPending {
		t.Errorf("duplicate request err = %v, want ErrRequestPending", err)
	}

	if err := svc.Accept(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	gotAlice, _ := f.users.GetByID(ctx, alice.ID)
	gotBob, _ := f.users.GetByID(ctx, bob.ID)
	if !containsID(gotAlice.Connections, bob.ID) || !containsID(gotBob.Connections, alice.ID) {
		t.Errorf("connections not mutual: %v / %v", gotAlice.Connections, gotBob.Connections)
	}

	if _, err := svc.Connect(ctx, alice.ID, bob.ID); err != ErrAlreadyConnected {
		t.Errorf("connect while connected err = %v, want ErrAlreadyConnected", err)
	}
}

func TestUserConnectReverseRequestCompletes(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.posts, f.connections, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if _, err := svc.Connect(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	status, err := svc.Connect(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("reverse Connect: %v", err)
	}
	if status != domain.ConnectionAccepted {
		t.Errorf("status = %q, want accepted", status)
	}
}

func TestUserConnectRateLimit(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.posts, f.connections, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	targets := make([]*domain.User, 0, connectionRequestLimit+1)
	for i := 0; i < connectionRequestLimit+1; i++ {
		targets = append(targets, f.user(t, "target"+string(rune('a'+i))))
	}

	for i := 0; i < connectionRequestLimit; i++ {
		if _, err := svc.Connect(ctx, alice.ID, targets[i].ID); err != nil {
			t.Fatalf("Connect %d: %v", i, err)
		}
	}
	if _, err := svc.Connect(ctx, alice.ID, targets[connectionRequestLimit].ID); err != ErrRequestLimit {
		t.Errorf("over-limit err = %v, want ErrRequestLimit", err)
	}
}

func TestUserDiscover(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.posts, f.connections, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")
	f.user(t, "alicia")

	if _, err := svc.Discover(ctx, alice.ID, "a"); err != ErrSearchTooShort {
		t.Errorf("short query err = %v, want ErrSearchTooShort", err)
	}

	results, err := svc.Discover(ctx, alice.ID, "ali")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	// The caller is excluded from their own results.
	for _, u := range results {
		if u.ID == alice.ID {
			t.Error("caller present in discover results")
		}
	}
	if len(results) != 1 || results[0].Username != "alicia" {
		t.Errorf("results = %v, want only alicia", results)
	}
}

func TestStoryCreateAndSweep(t *testing.T) {
	f := newFixture(t)
	svc := NewStoryService(f.stories, f.users, f.uploader, config.StoryConfig{TTL: 24 * time.Hour})
	ctx := context.Background()

	alice := f.user(t, "alice")

	story, err := svc.Create(ctx, alice.ID, &domain.CreateStoryRequest{
		Content:         "hello",
		MediaType:       domain.StoryTypeText,
		BackgroundColor: "#4f46e5",
	}, "", "", nil, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if story.ID == "" {
		t.Fatal("story has no ID")
	}

	if _, err := svc.Create(ctx, alice.ID, &domain.CreateStoryRequest{MediaType: domain.StoryTypeText}, "", "", nil, 0); err != ErrEmptyMessage {
		t.Errorf("empty text story err = %v, want ErrEmptyMessage", err)
	}
	if _, err := svc.Create(ctx, alice.ID, &domain.CreateStoryRequest{MediaType: "gif"}, "", "", nil, 0); err != ErrUnsupportedMedia {
		t.Errorf("bad media type err = %v, want ErrUnsupportedMedia", err)
	}

	feed, err := svc.Feed(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed has %d stories, want 1", len(feed))
	}
	if feed[0].User == nil || feed[0].User.Username != "alice" {
		t.Error("story author not expanded")
	}

	// Nothing is old enough to sweep yet.
	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 0 {
		t.Errorf("swept %d stories, want 0", n)
	}

	// Backdate and sweep.
	old := time.Now().Add(-25 * time.Hour)
	if err := f.db.Model(&domain.StoryModel{}).Where("id = ?", story.ID).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	n, err = svc.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d stories, want 1", n)
	}
}

func TestStoryFeedIncludesGraph(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.users, f.posts, f.connections, f.uploader)
	svc := NewStoryService(f.stories, f.users, f.uploader, config.StoryConfig{TTL: 24 * time.Hour})
	ctx := context.Background()

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	if err := users.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	for _, u := range []*domain.User{bob, carol} {
		if _, err := svc.Create(ctx, u.ID, &domain.CreateStoryRequest{Content: "s", MediaType: domain.StoryTypeText}, "", "", nil, 0); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	feed, err := svc.Feed(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	// Bob is followed; Carol is not.
	if len(feed) != 1 || feed[0].UserID != bob.ID {
		t.Errorf("feed = %v, want only bob's story", feed)
	}
}

func TestPostCreateFeedAndLike(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(f.posts, f.users, f.uploader)
	ctx := context.Background()

	alice := f.user(t, "alice")

	if _, err := svc.Create(ctx, alice.ID, &domain.CreatePostRequest{}, nil); err != ErrEmptyMessage {
		t.Errorf("empty post err = %v, want ErrEmptyMessage", err)
	}

	post, err := svc.Create(ctx, alice.ID, &domain.CreatePostRequest{Content: "hello"}, []io.Reader{pngReader(t)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(post.ImageURLs) != 1 {
		t.Errorf("image urls = %v, want 1", post.ImageURLs)
	}

	feed, err := svc.Feed(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 1 || feed[0].User == nil {
		t.Fatalf("feed = %v, want 1 post with author", feed)
	}

	liked, err := svc.ToggleLike(ctx, alice.ID, post.ID)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if len(liked.Likes) != 1 {
		t.Errorf("likes = %v, want 1", liked.Likes)
	}
	unliked, err := svc.ToggleLike(ctx, alice.ID, post.ID)
	if err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if len(unliked.Likes) != 0 {
		t.Errorf("likes = %v, want 0 after toggle", unliked.Likes)
	}
}

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
