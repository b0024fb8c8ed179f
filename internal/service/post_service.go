package service

import (
	"context"
	"io"
	"strings"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/media"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/pkg/log"
)

// postServiceImpl implements PostService.
type postServiceImpl struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	uploader *media.Uploader
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, uploader *media.Uploader) PostService {
	return &postServiceImpl{
		posts:    posts,
		users:    users,
		uploader: uploader,
	}
}

// Create stores a new post with any attached images.
func (s *postServiceImpl) Create(ctx context.Context, userID string, req *domain.CreatePostRequest, images []io.Reader) (*domain.Post, error) {
	l := log.Ctx(ctx)

	content := strings.TrimSpace(req.Content)
	if content == "" && len(images) == 0 {
		return nil, ErrEmptyMessage
	}

	post := &domain.Post{
		UserID:  userID,
		Content: content,
	}

	for _, img := range images {
		url, err := s.uploader.UploadImage(ctx, media.KindPost, userID, img)
		if err != nil {
			l.Error().Err(err).Msg("failed to upload post image")
			return nil, err
		}
		post.ImageURLs = append(post.ImageURLs, url)
	}

	if err := s.posts.Create(ctx, post); err != nil {
		l.Error().Err(err).Msg("failed to store post")
		return nil, err
	}

	l.Info().Str("post_id", post.ID).Str(log.FieldUserID, userID).Msg("post created")
	return post, nil
}

// Feed returns posts from the user, their connections, and the users
// they follow, with authors expanded.
func (s *postServiceImpl) Feed(ctx context.Context, userID string) ([]*domain.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.FindFeed(ctx, graphIDs(user))
	if err != nil {
		return nil, err
	}

	if err := s.attachAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ToggleLike adds or removes the caller's like on a post.
func (s *postServiceImpl) ToggleLike(ctx context.Context, userID, postID string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if contains(post.Likes, userID) {
		post.Likes = remove(post.Likes, userID)
	} else {
		post.Likes = append(post.Likes, userID)
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postServiceImpl) attachAuthors(ctx context.Context, posts []*domain.Post) error {
	idSet := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		idSet[p.UserID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	refs := make(map[string]domain.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = u.ToRef()
	}

	for _, p := range posts {
		if ref, ok := refs[p.UserID]; ok {
			r := ref
			p.User = &r
		}
	}
	return nil
}
