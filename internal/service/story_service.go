package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/artwall/artwall/internal/config"
	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/media"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/pkg/log"
)

// storyServiceImpl implements StoryService.
type storyServiceImpl struct {
	stories  repository.StoryRepository
	users    repository.UserRepository
	uploader *media.Uploader
	cfg      config.StoryConfig
}

// NewStoryService creates a new story service.
func NewStoryService(stories repository.StoryRepository, users repository.UserRepository, uploader *media.Uploader, cfg config.StoryConfig) StoryService {
	return &storyServiceImpl{
		stories:  stories,
		users:    users,
		uploader: uploader,
		cfg:      cfg,
	}
}

// Create stores a new story. Text stories need content; image and
// video stories need media.
func (s *storyServiceImpl) Create(ctx context.Context, userID string, req *domain.CreateStoryRequest, mediaFilename, mediaContentType string, mediaReader io.Reader, mediaSize int64) (*domain.Story, error) {
	l := log.Ctx(ctx)

	story := &domain.Story{
		UserID:          userID,
		Content:         strings.TrimSpace(req.Content),
		MediaType:       req.MediaType,
		BackgroundColor: req.BackgroundColor,
	}

	switch req.MediaType {
	case domain.StoryTypeText:
		if story.Content == "" {
			return nil, ErrEmptyMessage
		}
	case domain.StoryTypeImage:
		if mediaReader == nil {
			return nil, ErrUnsupportedMedia
		}
		url, err := s.uploader.UploadImage(ctx, media.KindStory, userID, mediaReader)
		if err != nil {
			l.Error().Err(err).Msg("failed to upload story image")
			return nil, err
		}
		story.MediaURL = url
	case domain.StoryTypeVideo:
		if mediaReader == nil {
			return nil, ErrUnsupportedMedia
		}
		url, err := s.uploader.UploadRaw(ctx, media.KindStory, userID, mediaFilename, mediaContentType, mediaReader, mediaSize)
		if err != nil {
			l.Error().Err(err).Msg("failed to upload story video")
			return nil, err
		}
		story.MediaURL = url
	default:
		return nil, ErrUnsupportedMedia
	}

	if err := s.stories.Create(ctx, story); err != nil {
		l.Error().Err(err).Msg("failed to store story")
		return nil, err
	}

	l.Info().
		Str(log.FieldStoryID, story.ID).
		Str(log.FieldUserID, userID).
		Str("media_type", story.MediaType).
		Msg("story created")
	return story, nil
}

// Feed returns active stories from the user, their connections, and the
// users they follow, with authors expanded.
func (s *storyServiceImpl) Feed(ctx context.Context, userID string) ([]*domain.Story, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := graphIDs(user)
	cutoff := time.Now().Add(-s.cfg.TTL)

	stories, err := s.stories.FindActive(ctx, ids, cutoff)
	if err != nil {
		return nil, err
	}

	if err := s.attachAuthors(ctx, stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// SweepExpired deletes stories past their lifetime along with their
// stored media.
func (s *storyServiceImpl) SweepExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.TTL)

	count, urls, err := s.stories.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, url := range urls {
		if err := s.uploader.Remove(ctx, url); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str("media_url", url).Msg("failed to remove expired story media")
		}
	}
	return int(count), nil
}

func (s *storyServiceImpl) attachAuthors(ctx context.Context, stories []*domain.Story) error {
	idSet := make(map[string]struct{}, len(stories))
	for _, st := range stories {
		idSet[st.UserID] = struct{}{}
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

	for _, st := range stories {
		if ref, ok := refs[st.UserID]; ok {
			r := ref
			st.User = &r
		}
	}
	return nil
}

// graphIDs returns the user plus everyone in their social graph,
// deduplicated.
func graphIDs(user *domain.User) []string {
	seen := map[string]struct{}{user.ID: {}}
	ids := []string{user.ID}
	for _, list := range [][]string{user.Connections, user.Following} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
