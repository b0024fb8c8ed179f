package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artwall/artwall/internal/domain"
)

// GormConnectionRepository implements ConnectionRepository using GORM.
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GORM-based connection
// repository.
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// Create persists a new connection request.
func (r *GormConnectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	conn.ID = uuid.New().String()

	model := domain.ConnectionToModel(conn)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return result.Error
	}

	conn.CreatedAt = model.CreatedAt
	return nil
}

// GetPending retrieves a pending request sent by fromUserID to toUserID.
func (r *GormConnectionRepository) GetPending(ctx context.Context, fromUserID, toUserID string) (*domain.Connection, error) {
	var model domain.ConnectionModel
	result := r.db.WithContext(ctx).
		First(&model, "from_user_id = ? AND to_user_id = ? AND status = ?",
			fromUserID, toUserID, domain.ConnectionPending)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// GetBetween retrieves any request between the two users, either
// direction, regardless of status.
func (r *GormConnectionRepository) GetBetween(ctx context.Context, userA, userB string) (*domain.Connection, error) {
	var model domain.ConnectionModel
	result := r.db.WithContext(ctx).
		First(&model, "(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// UpdateStatus changes a request's status.
func (r *GormConnectionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).Model(&domain.ConnectionModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// CountRecentFrom counts requests sent by the user since the cutoff.
func (r *GormConnectionRepository) CountRecentFrom(ctx context.Context, fromUserID string, since time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&domain.ConnectionModel{}).
		Where("from_user_id = ? AND created_at > ?", fromUserID, since).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
