package repository

import (
	"context"
	"errors"

	"github.com/buildtalk/forum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(thread).Error)
}

func (r *threadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

// List returns threads newest first.
func (r *threadRepository) List(ctx context.Context, filter models.ThreadFilter) ([]models.Thread, error) {
	query := r.db.WithContext(ctx).Model(&models.Thread{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AuthorID != uuid.Nil {
		query = query.Where("author_id = ?", filter.AuthorID)
	}

	threads := make([]models.Thread, 0)
	err := query.Order("created_at DESC").Order("id DESC").Find(&threads).Error
	return threads, err
}

func (r *threadRepository) Update(ctx context.Context, id uuid.UUID, update models.ThreadUpdate) (*models.Thread, error) {
	fields := map[string]interface{}{}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Content != nil {
		fields["content"] = *update.Content
	}
	if update.Category != nil {
		fields["category"] = *update.Category
	}
	return r.updateColumns(ctx, id, fields)
}

func (r *threadRepository) SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Thread, error) {
	return r.updateColumns(ctx, id, map[string]interface{}{"upvotes": upvotes})
}

func (r *threadRepository) updateColumns(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Thread{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&thread).Error
	})
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, models.TargetThread, id, "UPDATE"); err != nil {
			return err
		}
		var commentIDs []uuid.UUID
		if err := tx.Model(&models.Comment{}).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("thread_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("target_type = ? AND target_id IN (?)", models.TargetComment, commentIDs).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id IN (?)", models.TargetComment, commentIDs).
			Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := deleteTargetRows(tx, models.TargetThread, id); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Thread{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// deleteTargetRows removes ledger rows that point at a deleted target.
// Karma grants stay so karma remains monotonic.
func deleteTargetRows(tx *gorm.DB, targetType models.TargetType, id uuid.UUID) error {
	if err := tx.Where("target_type = ? AND target_id = ?", targetType, id).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	return tx.Where("target_type = ? AND target_id = ?", targetType, id).Delete(&models.Bookmark{}).Error
}
