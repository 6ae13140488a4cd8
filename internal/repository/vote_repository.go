package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildtalk/forum/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Get(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Vote, error) {
	return findVote(r.db.WithContext(ctx), userID, targetType, targetID)
}

func findVote(db *gorm.DB, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Vote, error) {
	var vote models.Vote
	err := db.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) Cast(ctx context.Context, cast models.VoteCast) (*models.VoteResult, error) {
	result := &models.VoteResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findVote(tx, cast.UserID, cast.TargetType, cast.TargetID)
		if err != nil {
			return err
		}

		var current *models.VoteType
		if existing != nil {
			current = &existing.VoteType
		}
		result.Action = models.NextVoteAction(current, cast.VoteType)

		switch result.Action {
		case models.VoteActionInsert:
			vote := &models.Vote{
				UserID:     cast.UserID,
				TargetType: cast.TargetType,
				TargetID:   cast.TargetID,
				VoteType:   cast.VoteType,
			}
			if err := tx.Create(vote).Error; err != nil {
				return translateError(err)
			}
			result.Vote = vote
		case models.VoteActionRemove:
			if err := tx.Delete(existing).Error; err != nil {
				return err
			}
		case models.VoteActionReplace:
			existing.VoteType = cast.VoteType
			if err := tx.Model(existing).Update("vote_type", cast.VoteType).Error; err != nil {
				return err
			}
			result.Vote = existing
		}

		counts, err := countVotes(tx, cast.TargetType, cast.TargetID)
		if err != nil {
			return err
		}
		result.Counts = counts

		if err := writeUpvotes(tx, cast.TargetType, cast.TargetID, counts.Upvotes); err != nil {
			return err
		}

		if result.Vote != nil && result.Vote.VoteType == models.VoteUp {
			return grantKarma(tx, cast, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// writeUpvotes stores the ledger-derived counter on the target row.
func writeUpvotes(tx *gorm.DB, targetType models.TargetType, targetID uuid.UUID, upvotes int64) error {
	var model interface{}
	switch targetType {
	case models.TargetThread:
		model = &models.Thread{}
	case models.TargetComment:
		model = &models.Comment{}
	default:
		return fmt.Errorf("vote: unknown target type %q", targetType)
	}

	res := tx.Model(model).Where("id = ?", targetID).UpdateColumn("upvotes", upvotes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// grantKarma pays the target author once per (voter, target), never for
// self-votes.
func grantKarma(tx *gorm.DB, cast models.VoteCast, result *models.VoteResult) error {
	if cast.TargetAuthorID == uuid.Nil || cast.TargetAuthorID == cast.UserID {
		return nil
	}

	grant := &models.KarmaGrant{
		VoterID:     cast.UserID,
		TargetType:  cast.TargetType,
		TargetID:    cast.TargetID,
		RecipientID: cast.TargetAuthorID,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(grant)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if err := tx.Model(&models.User{}).Where("id = ?", cast.TargetAuthorID).
		UpdateColumn("karma", gorm.Expr("karma + ?", 1)).Error; err != nil {
		return err
	}

	var karma int
	if err := tx.Model(&models.User{}).Where("id = ?", cast.TargetAuthorID).
		Select("karma").Scan(&karma).Error; err != nil {
		return err
	}

	recipient := cast.TargetAuthorID
	result.KarmaRecipient = &recipient
	result.RecipientKarma = karma
	return nil
}

func (r *voteRepository) Counts(ctx context.Context, targetType models.TargetType, targetID uuid.UUID) (models.VoteCounts, error) {
	return countVotes(r.db.WithContext(ctx), targetType, targetID)
}

func countVotes(db *gorm.DB, targetType models.TargetType, targetID uuid.UUID) (models.VoteCounts, error) {
	var rows []struct {
		VoteType models.VoteType
		Total    int64
	}
	err := db.Model(&models.Vote{}).
		Select("vote_type, COUNT(*) AS total").
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Group("vote_type").
		Scan(&rows).Error
	if err != nil {
		return models.VoteCounts{}, err
	}

	var counts models.VoteCounts
	for _, row := range rows {
		switch row.VoteType {
		case models.VoteUp:
			counts.Upvotes = row.Total
		case models.VoteDown:
			counts.Downvotes = row.Total
		}
	}
	return counts, nil
}
