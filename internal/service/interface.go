package service

import (
	"context"
	"errors"
	"io"

	"github.com/artwall/artwall/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyMessage       = errors.New("message must contain text or an image")
	ErrSearchTooShort     = errors.New("search query must be at least 2 characters")
	ErrSelfTarget         = errors.New("cannot target yourself")
	ErrAlreadyFollowing   = errors.New("already following this user")
	ErrNotFollowing       = errors.New("not following this user")
	ErrAlreadyConnected   = errors.New("already connected to this user")
	ErrRequestPending     = errors.New("connection request already pending")
	ErrRequestLimit       = errors.New("too many connection requests, try again later")
	ErrNoPendingRequest   = errors.New("no pending connection request from this user")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
)

// AuthService handles registration, login, and token refresh.
type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
}

// MessageService handles message creation and retrieval.
type MessageService interface {
	// Send validates, stores, and expands a message. The message is what
	// the sender gets back; the event is ready for push dispatch, which
	// is the caller's concern.
	Send(ctx context.Context, fromUserID string, req *domain.SendMessageRequest, image io.Reader) (*domain.Message, *domain.MessageEvent, error)
	// Conversation returns the full exchange with the other user,
	// oldest first, and marks the other user's messages as seen.
	Conversation(ctx context.Context, userID, otherUserID string) ([]*domain.Message, error)
	// Recent returns the user's messages across all counterparts,
	// newest first, with participants expanded.
	Recent(ctx context.Context, userID string) ([]*domain.MessageEvent, error)
}

// UserService handles profiles and the social graph.
type UserService interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req *domain.UpdateProfileRequest, profileImage, coverImage io.Reader) (*domain.User, error)
	Discover(ctx context.Context, userID, query string) ([]*domain.User, error)
	Follow(ctx context.Context, userID, targetID string) error
	Unfollow(ctx context.Context, userID, targetID string) error
	Connect(ctx context.Context, userID, targetID string) (string, error)
	Accept(ctx context.Context, userID, requesterID string) error
	Profile(ctx context.Context, profileID string) (*domain.User, []*domain.Post, error)
}

// StoryService handles ephemeral stories.
type StoryService interface {
	Create(ctx context.Context, userID string, req *domain.CreateStoryRequest, mediaFilename, mediaContentType string, media io.Reader, mediaSize int64) (*domain.Story, error)
	// Feed returns active stories from the user and their graph.
	Feed(ctx context.Context, userID string) ([]*domain.Story, error)
	// SweepExpired deletes stories older than the configured lifetime
	// and their media. Returns the number removed.
	SweepExpired(ctx context.Context) (int, error)
}

// PostService handles feed posts.
type PostService interface {
	Create(ctx context.Context, userID string, req *domain.CreatePostRequest, images []io.Reader) (*domain.Post, error)
	Feed(ctx context.Context, userID string) ([]*domain.Post, error)
	ToggleLike(ctx context.Context, userID, postID string) (*domain.Post, error)
}
