package repository

import (
	"context"
	"errors"

	"github.com/buildtalk/forum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create stores a comment. It returns ErrNotFound when the thread is gone.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, models.TargetThread, comment.ThreadID, "SHARE"); err != nil {
			return err
		}
		return translateError(tx.Omit(clause.Associations).Create(comment).Error)
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// ListByThread returns a thread's comments oldest first.
func (r *commentRepository) ListByThread(ctx context.Context, threadID uuid.UUID) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Update(ctx context.Context, id uuid.UUID, content string) (*models.Comment, error) {
	return r.updateColumns(ctx, id, map[string]interface{}{"content": content})
}

func (r *commentRepository) SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Comment, error) {
	return r.updateColumns(ctx, id, map[string]interface{}{"upvotes": upvotes})
}

func (r *commentRepository) updateColumns(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Comment{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).First(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTarget(tx, models.TargetComment, id, "UPDATE"); err != nil {
			return err
		}
		if err := deleteTargetRows(tx, models.TargetComment, id); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
