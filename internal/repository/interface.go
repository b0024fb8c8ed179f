package repository

import (
	"context"
	"errors"
	"time"

	"github.com/artwall/artwall/internal/domain"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrMessageNotFound    = errors.New("message not found")
	ErrStoryNotFound      = errors.New("story not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionExists   = errors.New("connection request already exists")
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
}

// MessageRepository defines the interface for message persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// FindConversation returns every message exchanged between the two
	// users, oldest first.
	FindConversation(ctx context.Context, userA, userB string) ([]*domain.Message, error)
	// MarkSeen flags as seen every message sent by fromUserID to toUserID.
	MarkSeen(ctx context.Context, fromUserID, toUserID string) error
	// FindRecentByUser returns every message where the user is sender or
	// recipient, newest first.
	FindRecentByUser(ctx context.Context, userID string) ([]*domain.Message, error)
}

// StoryRepository defines the interface for story persistence.
type StoryRepository interface {
	Create(ctx context.Context, story *domain.Story) error
	// FindActive returns stories created after the cutoff for the given
	// users, newest first.
	FindActive(ctx context.Context, userIDs []string, cutoff time.Time) ([]*domain.Story, error)
	// DeleteExpired removes stories created before the cutoff. It
	// returns the number of rows removed and the media URLs they held.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, []string, error)
}

// PostRepository defines the interface for post persistence.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	// FindFeed returns posts by the given users, newest first.
	FindFeed(ctx context.Context, userIDs []string) ([]*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
}

// ConnectionRepository defines the interface for connection-request
// persistence.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *domain.Connection) error
	GetPending(ctx context.Context, fromUserID, toUserID string) (*domain.Connection, error)
	GetBetween(ctx context.Context, userA, userB string) (*domain.Connection, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// CountRecentFrom counts requests sent by the user since the cutoff.
	CountRecentFrom(ctx context.Context, fromUserID string, since time.Time) (int64, error)
}
