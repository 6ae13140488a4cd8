package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TargetType string

const (
	TargetThread  TargetType = "thread"
	TargetComment TargetType = "comment"
)

func (t TargetType) Valid() bool {
	return t == TargetThread || t == TargetComment
}

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote is one row of the vote ledger. At most one row exists per
// (user, target type, target id).
type Vote struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_target,priority:1" json:"userId"`
	TargetType TargetType `gorm:"type:varchar(20);not null;uniqueIndex:idx_votes_user_target,priority:2;index:idx_votes_target,priority:1" json:"targetType"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_target,priority:3;index:idx_votes_target,priority:2" json:"targetId"`
	VoteType   VoteType   `gorm:"type:varchar(10);not null" json:"voteType"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VoteAction is the ledger change produced by one cast.
type VoteAction string

const (
	VoteActionInsert  VoteAction = "insert"
	VoteActionRemove  VoteAction = "remove"
	VoteActionReplace VoteAction = "replace"
)

// NextVoteAction applies a cast to the current state of a (voter, target)
// pair. current is nil when no vote exists. Casting the stored direction
// again cancels it; casting the opposite direction replaces it.
func NextVoteAction(current *VoteType, cast VoteType) VoteAction {
	switch {
	case current == nil:
		return VoteActionInsert
	case *current == cast:
		return VoteActionRemove
	default:
		return VoteActionReplace
	}
}

// VoteCast is a directional vote event submitted by a caller.
type VoteCast struct {
	UserID     uuid.UUID
	TargetType TargetType
	TargetID   uuid.UUID
	VoteType   VoteType
	// TargetAuthorID receives karma on the voter's first up-vote.
	TargetAuthorID uuid.UUID
}

// VoteCounts aggregates the ledger for one target.
type VoteCounts struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// VoteResult describes the outcome of a reconciled cast.
type VoteResult struct {
	Action VoteAction
	Vote   *Vote // nil after a removal
	Counts VoteCounts
	// KarmaRecipient is set when the cast paid karma to the target author.
	KarmaRecipient *uuid.UUID
	RecipientKarma int
}

// KarmaGrant records that a voter's up-vote on a target already paid karma
// to its author. Toggling the vote afterwards never pays again.
type KarmaGrant struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VoterID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_karma_grants_voter_target,priority:1"`
	TargetType  TargetType `gorm:"type:varchar(20);not null;uniqueIndex:idx_karma_grants_voter_target,priority:2"`
	TargetID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_karma_grants_voter_target,priority:3"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time
}

func (g *KarmaGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
