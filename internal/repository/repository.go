package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/buildtalk/forum/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned by mutations addressed to an unknown row.
	// Point lookups return (nil, nil) instead.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate reports a unique-index violation.
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByExternalSubject(ctx context.Context, subject string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Stats(ctx context.Context, id uuid.UUID) (models.UserStats, error)
}

type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error)
	List(ctx context.Context, filter models.ThreadFilter) ([]models.Thread, error)
	Update(ctx context.Context, id uuid.UUID, update models.ThreadUpdate) (*models.Thread, error)
	SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Thread, error)
	// Delete removes the thread's comments and every vote or bookmark
	// pointing at the thread or those comments, then the thread itself.
	Delete(ctx context.Context, id uuid.UUID) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListByThread(ctx context.Context, threadID uuid.UUID) ([]models.Comment, error)
	Update(ctx context.Context, id uuid.UUID, content string) (*models.Comment, error)
	SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type VoteRepository interface {
	Get(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Vote, error)
	// Cast reconciles one directional vote atomically and rewrites the
	// target's upvote counter from the ledger.
	Cast(ctx context.Context, cast models.VoteCast) (*models.VoteResult, error)
	Counts(ctx context.Context, targetType models.TargetType, targetID uuid.UUID) (models.VoteCounts, error)
}

type BookmarkRepository interface {
	// Toggle deletes an existing bookmark or inserts a new one. The returned
	// bookmark is nil when it was removed.
	Toggle(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Bookmark, bool, error)
	Exists(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error)
}

type AchievementRepository interface {
	Seed(ctx context.Context, achievements []models.Achievement) error
	List(ctx context.Context) ([]models.Achievement, error)
	ListEarned(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error)
	// Award is idempotent and reports whether a new row was written.
	Award(ctx context.Context, userID, achievementID uuid.UUID) (bool, error)
}

// Store bundles the persistence gateway so a database-backed store and the
// in-memory store are interchangeable at startup.
type Store struct {
	Users        UserRepository
	Threads      ThreadRepository
	Comments     CommentRepository
	Votes        VoteRepository
	Bookmarks    BookmarkRepository
	Achievements AchievementRepository
}

// NewGormStore wires every repository to one gorm connection.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:        NewUserRepository(db),
		Threads:      NewThreadRepository(db),
		Comments:     NewCommentRepository(db),
		Votes:        NewVoteRepository(db),
		Bookmarks:    NewBookmarkRepository(db),
		Achievements: NewAchievementRepository(db),
	}
}

// translateError maps driver errors onto the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrNotFound
	}
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return ErrNotFound
	}
	return err
}

// lockTarget locks a thread or comment row until tx ends and returns
// ErrNotFound when it does not exist. Inserts that depend on the row take
// a SHARE lock and deletes take UPDATE. SQLite ignores the locking clause
// and serializes writers instead.
func lockTarget(tx *gorm.DB, targetType models.TargetType, id uuid.UUID, strength string) error {
	var model interface{}
	switch targetType {
	case models.TargetThread:
		model = &models.Thread{}
	case models.TargetComment:
		model = &models.Comment{}
	default:
		return ErrNotFound
	}

	var ids []uuid.UUID
	err := tx.Model(model).
		Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", id).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNotFound
	}
	return nil
}
