package repository

import (
	"context"
	"errors"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"

	"github.com/artwall/artwall/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create persists a new message. IDs are KSUIDs so lexicographic order
// follows creation order.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	msg.ID = ksuid.New().String()

	model := domain.MessageToModel(msg)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return result.Error
	}

	msg.CreatedAt = model.CreatedAt
	return nil
}

// FindConversation returns every message exchanged between the two
// users, ordered by creation time then ID.
func (r *GormMessageRepository) FindConversation(ctx context.Context, userA, userB string) ([]*domain.Message, error) {
	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC, id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	msgs := make([]*domain.Message, 0, len(models))
	for i := range models {
		msgs = append(msgs, models[i].ToDomain())
	}
	return msgs, nil
}

// MarkSeen flags as seen every message sent by fromUserID to toUserID.
func (r *GormMessageRepository) MarkSeen(ctx context.Context, fromUserID, toUserID string) error {
	return r.db.WithContext(ctx).Model(&domain.MessageModel{}).
		Where("from_user_id = ? AND to_user_id = ? AND seen = ?", fromUserID, toUserID, false).
		Update("seen", true).Error
}

// FindRecentByUser returns every message where the user is sender or
// recipient, newest first.
func (r *GormMessageRepository) FindRecentByUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	var models []domain.MessageModel
	result := r.db.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	msgs := make([]*domain.Message, 0, len(models))
	for i := range models {
		msgs = append(msgs, models[i].ToDomain())
	}
	return msgs, nil
}

// GetByID retrieves a message by ID.
func (r *GormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
