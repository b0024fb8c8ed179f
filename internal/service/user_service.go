package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/media"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/pkg/log"
)

const (
	connectionRequestLimit  = 20
	connectionRequestWindow = 24 * time.Hour
	discoverResultLimit     = 50
)

// userServiceImpl implements UserService.
type userServiceImpl struct {
	users       repository.UserRepository
	posts       repository.PostRepository
	connections repository.ConnectionRepository
	uploader    *media.Uploader
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, posts repository.PostRepository, connections repository.ConnectionRepository, uploader *media.Uploader) UserService {
	return &userServiceImpl{
		users:       users,
		posts:       posts,
		connections: connections,
		uploader:    uploader,
	}
}

// Get returns a user by ID.
func (s *userServiceImpl) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Update applies profile changes. Empty request fields keep current
// values; images replace the existing ones.
func (s *userServiceImpl) Update(ctx context.Context, userID string, req *domain.UpdateProfileRequest, profileImage, coverImage io.Reader) (*domain.User, error) {
	l := log.Ctx(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(req.Username); username != "" && username != user.Username {
		existing, err := s.users.GetByUsername(ctx, username)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUsernameTaken
		}
		user.Username = username
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Location != "" {
		user.Location = req.Location
	}

	if profileImage != nil {
		url, err := s.uploader.UploadImage(ctx, media.KindProfile, userID, profileImage)
		if err != nil {
			l.Error().Err(err).Msg("failed to upload profile picture")
			return nil, err
		}
		user.ProfilePicture = url
	}
	if coverImage != nil {
		url, err := s.uploader.UploadImage(ctx, media.KindCover, userID, coverImage)
		if err != nil {
			l.Error().Err(err).Msg("failed to upload cover photo")
			return nil, err
		}
		user.CoverPhoto = url
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	l.Info().Str(log.FieldUserID, userID).Msg("profile updated")
	return user, nil
}

// Discover searches for users matching the query, excluding the caller.
func (s *userServiceImpl) Discover(ctx context.Context, userID, query string) ([]*domain.User, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return nil, ErrSearchTooShort
	}

	found, err := s.users.Search(ctx, query, discoverResultLimit)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.User, 0, len(found))
	for _, u := range found {
		if u.ID == userID {
			continue
		}
		results = append(results, u)
	}
	return results, nil
}

// Follow adds the target to the caller's following list and the caller
// to the target's followers.
func (s *userServiceImpl) Follow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return ErrSelfTarget
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if contains(user.Following, targetID) {
		return ErrAlreadyFollowing
	}

	user.Following = append(user.Following, targetID)
	target.Followers = append(target.Followers, userID)

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.users.Update(ctx, target); err != nil {
		return err
	}

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldUserID, userID).
		Str("target_id", targetID).
		Msg("user followed")
	return nil
}

// Unfollow reverses Follow.
func (s *userServiceImpl) Unfollow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return ErrSelfTarget
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if !contains(user.Following, targetID) {
		return ErrNotFollowing
	}

	user.Following = remove(user.Following, targetID)
	target.Followers = remove(target.Followers, userID)

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.users.Update(ctx, target)
}

// Connect sends a connection request, or completes the connection
// immediately when the target already has a pending request toward the
// caller. Returns the resulting status.
func (s *userServiceImpl) Connect(ctx context.Context, userID, targetID string) (string, error) {
	if userID == targetID {
		return "", ErrSelfTarget
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if contains(user.Connections, targetID) {
		return "", ErrAlreadyConnected
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return "", err
	}

	count, err := s.connections.CountRecentFrom(ctx, userID, time.Now().Add(-connectionRequestWindow))
	if err != nil {
		return "", err
	}
	if count >= connectionRequestLimit {
		return "", ErrRequestLimit
	}

	// A pending request in the opposite direction means both sides
	// want the link: accept it instead of creating a mirror request.
	if _, err := s.connections.GetPending(ctx, targetID, userID); err == nil {
		if err := s.Accept(ctx, userID, targetID); err != nil {
			return "", err
		}
		return domain.ConnectionAccepted, nil
	}

	if _, err := s.connections.GetPending(ctx, userID, targetID); err == nil {
		return "", ErrRequestPending
	}

	conn := &domain.Connection{
		FromUserID: userID,
		ToUserID:   targetID,
		Status:     domain.ConnectionPending,
	}
	if err := s.connections.Create(ctx, conn); err != nil {
		return "", err
	}

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldUserID, userID).
		Str("target_id", targetID).
		Msg("connection request sent")
	return domain.ConnectionPending, nil
}

// Accept completes a pending request sent by requesterID to userID and
// links both users.
func (s *userServiceImpl) Accept(ctx context.Context, userID, requesterID string) error {
	conn, err := s.connections.GetPending(ctx, requesterID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrConnectionNotFound) {
			return ErrNoPendingRequest
		}
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}

	if err := s.connections.UpdateStatus(ctx, conn.ID, domain.ConnectionAccepted); err != nil {
		return err
	}

	if !contains(user.Connections, requesterID) {
		user.Connections = append(user.Connections, requesterID)
	}
	if !contains(requester.Connections, userID) {
		requester.Connections = append(requester.Connections, userID)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.users.Update(ctx, requester); err != nil {
		return err
	}

	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldUserID, userID).
		Str("requester_id", requesterID).
		Msg("connection accepted")
	return nil
}

// Profile returns a user together with their posts, newest first.
func (s *userServiceImpl) Profile(ctx context.Context, profileID string) (*domain.User, []*domain.Post, error) {
	user, err := s.users.GetByID(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}

	posts, err := s.posts.FindFeed(ctx, []string{profileID})
	if err != nil {
		return nil, nil, err
	}

	ref := user.ToRef()
	for _, p := range posts {
		p.User = &ref
	}
	return user, posts, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
