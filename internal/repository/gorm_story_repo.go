package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artwall/artwall/internal/domain"
)

// GormStoryRepository implements StoryRepository using GORM.
type GormStoryRepository struct {
	db *gorm.DB
}

// NewGormStoryRepository creates a new GORM-based story repository.
func NewGormStoryRepository(db *gorm.DB) *GormStoryRepository {
	return &GormStoryRepository{db: db}
}

// Create persists a new story.
func (r *GormStoryRepository) Create(ctx context.Context, story *domain.Story) error {
	story.ID = uuid.New().String()

	model := domain.StoryToModel(story)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return result.Error
	}

	story.CreatedAt = model.CreatedAt
	return nil
}

// FindActive returns stories created after the cutoff for the given
// users, newest first.
func (r *GormStoryRepository) FindActive(ctx context.Context, userIDs []string, cutoff time.Time) ([]*domain.Story, error) {
	if len(userIDs) == 0 {
		return []*domain.Story{}, nil
	}

	var models []domain.StoryModel
	result := r.db.WithContext(ctx).
		Where("user_id IN ? AND created_at > ?", userIDs, cutoff).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	stories := make([]*domain.Story, 0, len(models))
	for i := range models {
		stories = append(stories, models[i].ToDomain())
	}
	return stories, nil
}

// DeleteExpired removes stories created before the cutoff. It returns
// the number of rows removed and their media URLs so callers can clean
// up storage.
func (r *GormStoryRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, []string, error) {
	var (
		count int64
		urls  []string
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var models []domain.StoryModel
		if err := tx.Where("created_at <= ?", cutoff).Find(&models).Error; err != nil {
			return err
		}
		count = int64(len(models))
		for i := range models {
			if models[i].MediaURL != "" {
				urls = append(urls, models[i].MediaURL)
			}
		}
		return tx.Where("created_at <= ?", cutoff).Delete(&domain.StoryModel{}).Error
	})
	if err != nil {
		return 0, nil, err
	}
	return count, urls, nil
}
