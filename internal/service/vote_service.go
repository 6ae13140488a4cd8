package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CastVoteInput struct {
	TargetType models.TargetType
	TargetID   uuid.UUID
	VoteType   models.VoteType
}

type VoteService struct {
	votes        repository.VoteRepository
	targets      targets
	achievements *AchievementService
	broker       broker.EventBroker
	locks        *keyLock
}

func NewVoteService(store *repository.Store, achievements *AchievementService, b broker.EventBroker) *VoteService {
	return &VoteService{
		votes:        store.Votes,
		targets:      targets{threads: store.Threads, comments: store.Comments},
		achievements: achievements,
		broker:       b,
		locks:        newKeyLock(),
	}
}

// Cast applies one directional vote: a first cast inserts, repeating the
// stored direction cancels, the opposite direction replaces.
func (s *VoteService) Cast(ctx context.Context, voterID uuid.UUID, in CastVoteInput) (*models.VoteResult, error) {
	authorID, err := s.targets.author(ctx, in.TargetType, in.TargetID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(ledgerKey(voterID, in.TargetType, in.TargetID))
	result, err := s.votes.Cast(ctx, models.VoteCast{
		UserID:         voterID,
		TargetType:     in.TargetType,
		TargetID:       in.TargetID,
		VoteType:       in.VoteType,
		TargetAuthorID: authorID,
	})
	unlock()

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			logger.Log.Warn("Concurrent vote rejected by unique index",
				zap.String("voter_id", voterID.String()),
				zap.String("target_id", in.TargetID.String()),
			)
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("cast vote: %w", err)
	}

	logger.Log.Info("Vote cast",
		zap.String("voter_id", voterID.String()),
		zap.String("target_type", string(in.TargetType)),
		zap.String("target_id", in.TargetID.String()),
		zap.String("vote_type", string(in.VoteType)),
		zap.String("action", string(result.Action)),
	)

	if result.KarmaRecipient != nil && s.achievements != nil {
		if _, err := s.achievements.AwardFor(ctx, *result.KarmaRecipient, result.RecipientKarma); err != nil {
			logger.Log.Error("Failed to award achievements",
				zap.String("user_id", result.KarmaRecipient.String()),
				zap.Error(err),
			)
		}
	}

	publish(ctx, s.broker, broker.EventVoteCast, map[string]interface{}{
		"targetType": in.TargetType,
		"targetId":   in.TargetID,
		"action":     result.Action,
		"upvotes":    result.Counts.Upvotes,
		"downvotes":  result.Counts.Downvotes,
	})
	return result, nil
}

func (s *VoteService) Counts(ctx context.Context, targetType models.TargetType, targetID uuid.UUID) (models.VoteCounts, error) {
	counts, err := s.votes.Counts(ctx, targetType, targetID)
	if err != nil {
		return counts, fmt.Errorf("count votes: %w", err)
	}
	return counts, nil
}

// Current returns the caller's stored vote on a target, or nil.
func (s *VoteService) Current(ctx context.Context, voterID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Vote, error) {
	vote, err := s.votes.Get(ctx, voterID, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("load vote: %w", err)
	}
	return vote, nil
}
