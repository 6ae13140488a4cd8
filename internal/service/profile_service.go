package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildtalk/forum/internal/karma"
	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/google/uuid"
)

// Profile is the caller's own profile page.
type Profile struct {
	*models.User
	models.UserStats
	Achievements       []models.Achievement `json:"achievements"`
	CurrentAchievement *models.Achievement  `json:"currentAchievement"`
	NextAchievement    *models.Achievement  `json:"nextAchievement"`
	KarmaToNext        int                  `json:"karmaToNext"`
}

type ProfileService struct {
	users        repository.UserRepository
	achievements repository.AchievementRepository
}

func NewProfileService(users repository.UserRepository, achievements repository.AchievementRepository) *ProfileService {
	return &ProfileService{users: users, achievements: achievements}
}

// Get assembles the profile. Achievement progress is recomputed from the
// current karma on every read.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	stats, err := s.users.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	ladder, err := s.achievements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	progress := karma.Evaluate(user.Karma, ladder)

	return &Profile{
		User:               user,
		UserStats:          stats,
		Achievements:       progress.Earned,
		CurrentAchievement: progress.Current,
		NextAchievement:    progress.Next,
		KarmaToNext:        progress.Remaining,
	}, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, update models.ProfileUpdate) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	update.Apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, userID)
}
