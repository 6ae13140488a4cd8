package repository

import (
	"context"
	"errors"

	"github.com/buildtalk/forum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Toggle(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Bookmark, bool, error) {
	var (
		bookmark *models.Bookmark
		added    bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Bookmark
		err := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
			First(&existing).Error
		switch {
		case err == nil:
			return tx.Delete(&existing).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := lockTarget(tx, targetType, targetID, "SHARE"); err != nil {
			return err
		}

		bookmark = &models.Bookmark{
			UserID:     userID,
			TargetType: targetType,
			TargetID:   targetID,
		}
		if err := tx.Create(bookmark).Error; err != nil {
			return translateError(err)
		}
		added = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return bookmark, added, nil
}

func (r *bookmarkRepository) Exists(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bookmark{}).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns the user's bookmarks newest first.
func (r *bookmarkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	bookmarks := make([]models.Bookmark, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}
