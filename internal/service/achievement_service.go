package service

import (
	"context"
	"fmt"

	"github.com/buildtalk/forum/internal/karma"
	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AchievementService struct {
	achievements repository.AchievementRepository
}

func NewAchievementService(achievements repository.AchievementRepository) *AchievementService {
	return &AchievementService{achievements: achievements}
}

// SeedDefaults stores the default ladder. Existing names are left alone.
func (s *AchievementService) SeedDefaults(ctx context.Context) error {
	if err := s.achievements.Seed(ctx, models.DefaultAchievements()); err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	return nil
}

func (s *AchievementService) List(ctx context.Context) ([]models.Achievement, error) {
	return s.achievements.List(ctx)
}

// AwardFor records every achievement reachable with karmaScore.
func (s *AchievementService) AwardFor(ctx context.Context, userID uuid.UUID, karmaScore int) ([]models.Achievement, error) {
	ladder, err := s.achievements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	progress := karma.Evaluate(karmaScore, ladder)
	awarded := make([]models.Achievement, 0)
	for _, a := range progress.Earned {
		created, err := s.achievements.Award(ctx, userID, a.ID)
		if err != nil {
			return awarded, fmt.Errorf("award %q: %w", a.Name, err)
		}
		if created {
			awarded = append(awarded, a)
			logger.Log.Info("Achievement unlocked",
				zap.String("user_id", userID.String()),
				zap.String("achievement", a.Name),
				zap.Int("karma", karmaScore),
			)
		}
	}
	return awarded, nil
}
