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

type CreateThreadInput struct {
	Title    string
	Content  string
	Category models.Category
}

type ThreadService struct {
	threads        repository.ThreadRepository
	broker         broker.EventBroker
	allowOverwrite bool
}

func NewThreadService(threads repository.ThreadRepository, b broker.EventBroker, allowOverwrite bool) *ThreadService {
	return &ThreadService{threads: threads, broker: b, allowOverwrite: allowOverwrite}
}

func (s *ThreadService) List(ctx context.Context, filter models.ThreadFilter) ([]models.Thread, error) {
	threads, err := s.threads.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return threads, nil
}

func (s *ThreadService) Get(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	return thread, nil
}

// Create stores a new thread. Identifier, counter and timestamps are
// assigned here regardless of what the caller sent.
func (s *ThreadService) Create(ctx context.Context, authorID uuid.UUID, in CreateThreadInput) (*models.Thread, error) {
	thread := &models.Thread{
		ID:       uuid.New(),
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		AuthorID: authorID,
		Upvotes:  0,
	}
	if err := s.threads.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	logger.Log.Info("Thread created",
		zap.String("thread_id", thread.ID.String()),
		zap.String("author_id", authorID.String()),
		zap.String("category", string(thread.Category)),
	)
	publish(ctx, s.broker, broker.EventThreadCreated, thread)
	return thread, nil
}

func (s *ThreadService) Update(ctx context.Context, callerID, id uuid.UUID, update models.ThreadUpdate) (*models.Thread, error) {
	if _, err := s.authorize(ctx, callerID, id); err != nil {
		return nil, err
	}

	thread, err := s.threads.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("update thread: %w", err)
	}
	return thread, nil
}

// SetUpvotes overwrites the counter with an absolute value. The next vote
// cast on the thread recomputes it from the ledger.
func (s *ThreadService) SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Thread, error) {
	if !s.allowOverwrite {
		return nil, ErrOverwriteDisabled
	}

	thread, err := s.threads.SetUpvotes(ctx, id, upvotes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("set thread upvotes: %w", err)
	}

	logger.Log.Warn("Thread upvotes overwritten",
		zap.String("thread_id", id.String()),
		zap.Int("upvotes", upvotes),
	)
	return thread, nil
}

// Delete removes the thread and its comments.
func (s *ThreadService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.threads.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrThreadNotFound
		}
		return fmt.Errorf("delete thread: %w", err)
	}

	logger.Log.Info("Thread deleted", zap.String("thread_id", id.String()))
	publish(ctx, s.broker, broker.EventThreadDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *ThreadService) authorize(ctx context.Context, callerID, id uuid.UUID) (*models.Thread, error) {
	thread, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if thread.AuthorID != callerID {
		return nil, ErrForbidden
	}
	return thread, nil
}
