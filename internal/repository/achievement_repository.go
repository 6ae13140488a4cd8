package repository

import (
	"context"
	"errors"

	"github.com/buildtalk/forum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

// Seed inserts the achievements whose names are not stored yet.
func (r *achievementRepository) Seed(ctx context.Context, achievements []models.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}
	rows := make([]models.Achievement, len(achievements))
	copy(rows, achievements)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
}

// List returns the ladder ordered by requirement.
func (r *achievementRepository) List(ctx context.Context) ([]models.Achievement, error) {
	achievements := make([]models.Achievement, 0)
	err := r.db.WithContext(ctx).Order("requirement ASC").Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) ListEarned(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	earned := make([]models.UserAchievement, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&earned).Error
	return earned, err
}

func (r *achievementRepository) Award(ctx context.Context, userID, achievementID uuid.UUID) (bool, error) {
	award := &models.UserAchievement{UserID: userID, AchievementID: achievementID}
	err := translateError(r.db.WithContext(ctx).Create(award).Error)
	if errors.Is(err, ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
