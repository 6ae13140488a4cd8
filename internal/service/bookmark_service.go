package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookmarkService struct {
	bookmarks repository.BookmarkRepository
	targets   targets
	locks     *keyLock
}

func NewBookmarkService(store *repository.Store) *BookmarkService {
	return &BookmarkService{
		bookmarks: store.Bookmarks,
		targets:   targets{threads: store.Threads, comments: store.Comments},
		locks:     newKeyLock(),
	}
}

// Toggle removes an existing bookmark or adds a new one. The bookmark is nil
// when it was removed.
func (s *BookmarkService) Toggle(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Bookmark, bool, error) {
	if _, err := s.targets.author(ctx, targetType, targetID); err != nil {
		return nil, false, err
	}

	unlock := s.locks.Lock(ledgerKey(userID, targetType, targetID))
	defer unlock()

	bookmark, added, err := s.bookmarks.Toggle(ctx, userID, targetType, targetID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, false, ErrTargetNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, false, ErrConflict
		}
		return nil, false, fmt.Errorf("toggle bookmark: %w", err)
	}

	logger.Log.Debug("Bookmark toggled",
		zap.String("user_id", userID.String()),
		zap.String("target_id", targetID.String()),
		zap.Bool("added", added),
	)
	return bookmark, added, nil
}

func (s *BookmarkService) List(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	bookmarks, err := s.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return bookmarks, nil
}
