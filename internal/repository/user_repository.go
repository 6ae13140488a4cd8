package repository

import (
	"context"
	"errors"

	"github.com/buildtalk/forum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetByExternalSubject(ctx context.Context, subject string) (*models.User, error) {
	return r.first(ctx, "external_subject = ?", subject)
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// Update saves every column of user. Karma is owned by the vote ledger and
// is never written from here.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).
		Model(user).
		Omit("karma", "created_at", clause.Associations).
		Select("*").
		Updates(user)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Stats(ctx context.Context, id uuid.UUID) (models.UserStats, error) {
	var stats models.UserStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Thread{}).Where("author_id = ?", id).Count(&stats.ThreadsCount).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Comment{}).Where("author_id = ?", id).Count(&stats.CommentsCount).Error; err != nil {
		return stats, err
	}

	var threadUpvotes, commentUpvotes int64
	if err := db.Model(&models.Thread{}).Where("author_id = ?", id).
		Select("COALESCE(SUM(upvotes), 0)").Scan(&threadUpvotes).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Comment{}).Where("author_id = ?", id).
		Select("COALESCE(SUM(upvotes), 0)").Scan(&commentUpvotes).Error; err != nil {
		return stats, err
	}
	stats.TotalUpvotes = threadUpvotes + commentUpvotes

	return stats, nil
}
