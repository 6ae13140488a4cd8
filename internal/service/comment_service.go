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

type CommentService struct {
	comments       repository.CommentRepository
	threads        repository.ThreadRepository
	broker         broker.EventBroker
	allowOverwrite bool
}

func NewCommentService(comments repository.CommentRepository, threads repository.ThreadRepository, b broker.EventBroker, allowOverwrite bool) *CommentService {
	return &CommentService{comments: comments, threads: threads, broker: b, allowOverwrite: allowOverwrite}
}

func (s *CommentService) ListByThread(ctx context.Context, threadID uuid.UUID) ([]models.Comment, error) {
	if err := s.requireThread(ctx, threadID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Get(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *CommentService) Create(ctx context.Context, authorID, threadID uuid.UUID, content string) (*models.Comment, error) {
	if err := s.requireThread(ctx, threadID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:       uuid.New(),
		Content:  content,
		ThreadID: threadID,
		AuthorID: authorID,
		Upvotes:  0,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	logger.Log.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("thread_id", threadID.String()),
		zap.String("author_id", authorID.String()),
	)
	publish(ctx, s.broker, broker.EventCommentCreated, comment)
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, callerID, id uuid.UUID, content string) (*models.Comment, error) {
	if _, err := s.authorize(ctx, callerID, id); err != nil {
		return nil, err
	}

	comment, err := s.comments.Update(ctx, id, content)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

func (s *CommentService) SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Comment, error) {
	if !s.allowOverwrite {
		return nil, ErrOverwriteDisabled
	}

	comment, err := s.comments.SetUpvotes(ctx, id, upvotes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("set comment upvotes: %w", err)
	}

	logger.Log.Warn("Comment upvotes overwritten",
		zap.String("comment_id", id.String()),
		zap.Int("upvotes", upvotes),
	)
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	comment, err := s.authorize(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	logger.Log.Info("Comment deleted", zap.String("comment_id", id.String()))
	publish(ctx, s.broker, broker.EventCommentDeleted, map[string]interface{}{
		"id":       id,
		"threadId": comment.ThreadID,
	})
	return nil
}

func (s *CommentService) requireThread(ctx context.Context, threadID uuid.UUID) error {
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return fmt.Errorf("load thread: %w", err)
	}
	if thread == nil {
		return ErrThreadNotFound
	}
	return nil
}

func (s *CommentService) authorize(ctx context.Context, callerID, id uuid.UUID) (*models.Comment, error) {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != callerID {
		return nil, ErrForbidden
	}
	return comment, nil
}
